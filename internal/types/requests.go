package types

import (
	"github.com/google/uuid"

	"github.com/pageza/familyrecipes/backend/internal/models"
)

// IngredientInput is one submitted ingredient line
type IngredientInput struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity float64   `json:"quantity" binding:"gte=0"`
	Unit     string    `json:"unit" binding:"required,max=50"`
	Notes    *string   `json:"notes" binding:"omitempty,max=500"`
}

// CreateRecipeRequest represents the request body for creating a recipe
type CreateRecipeRequest struct {
	Name         string            `json:"name" binding:"required,max=255"`
	Description  *string           `json:"description"`
	Instructions string            `json:"instructions" binding:"required"`
	PrepTime     int               `json:"prep_time" binding:"gte=0"`
	CookTime     int               `json:"cook_time" binding:"gte=0"`
	Servings     int               `json:"servings" binding:"gte=1"`
	Difficulty   models.Difficulty `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	Ingredients  []IngredientInput `json:"ingredients" binding:"dive"`
}

// UpdateRecipeRequest represents the request body for updating a recipe.
// Omitted fields are left unchanged; a present "ingredients" array, even an
// empty one, replaces the whole ingredient set.
type UpdateRecipeRequest struct {
	Name         *string            `json:"name" binding:"omitempty,min=1,max=255"`
	Description  *string            `json:"description"`
	Instructions *string            `json:"instructions" binding:"omitempty,min=1"`
	PrepTime     *int               `json:"prep_time" binding:"omitempty,gte=0"`
	CookTime     *int               `json:"cook_time" binding:"omitempty,gte=0"`
	Servings     *int               `json:"servings" binding:"omitempty,gte=1"`
	Difficulty   *models.Difficulty `json:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	Ingredients  []IngredientInput  `json:"ingredients" binding:"dive"`
}

// RateRecipeRequest represents a rating submission. Every field is optional.
type RateRecipeRequest struct {
	Nutrition  *int    `json:"nutrition" binding:"omitempty,min=0,max=5"`
	Flavor     *int    `json:"flavor" binding:"omitempty,min=0,max=5"`
	Difficulty *int    `json:"difficulty" binding:"omitempty,min=0,max=5"`
	Comment    *string `json:"comment" binding:"omitempty,max=2000"`
}

// RecipeListQuery holds the query-string filters for recipe listings
type RecipeListQuery struct {
	Name        string            `form:"name"`
	Difficulty  models.Difficulty `form:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	MaxPrepTime *int              `form:"max_prep_time" binding:"omitempty,gte=0"`
	MaxCookTime *int              `form:"max_cook_time" binding:"omitempty,gte=0"`
	Ingredient  string            `form:"ingredient"`
	MinRating   *float64          `form:"min_rating" binding:"omitempty,min=0,max=5"`
}

// PhotoUpload is a recipe photo received from a multipart form
type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
