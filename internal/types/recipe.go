package types

import (
	"github.com/pageza/familyrecipes/backend/internal/models"
	"github.com/pageza/familyrecipes/backend/internal/ratings"
)

// RecipeDetails is a recipe with its ingredients, ratings and the derived
// rating summary. JointRating follows the same rule as the metrics average.
type RecipeDetails struct {
	*models.Recipe
	AverageRatings ratings.Averages `json:"average_ratings"`
	JointRating    float64          `json:"joint_rating"`
	RatingCount    int              `json:"rating_count"`
}

// NewRecipeDetails derives the rating summary for recipe.
func NewRecipeDetails(recipe *models.Recipe) *RecipeDetails {
	scores := recipe.Scores()
	return &RecipeDetails{
		Recipe:         recipe,
		AverageRatings: ratings.Average(scores),
		JointRating:    ratings.JointAverage(scores),
		RatingCount:    len(recipe.Ratings),
	}
}
