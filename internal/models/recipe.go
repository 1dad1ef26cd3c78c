package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/familyrecipes/backend/internal/ratings"
)

// Difficulty is the preparation difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe is the aggregate root. Ingredients and ratings are removed with it.
type Recipe struct {
	ID           uuid.UUID          `gorm:"type:varchar(36);primarykey" json:"id"`
	Name         string             `gorm:"size:255;not null" json:"name"`
	Description  *string            `gorm:"type:text" json:"description,omitempty"`
	Instructions string             `gorm:"type:text;not null" json:"instructions"`
	PrepTime     int                `gorm:"not null;default:0;check:prep_time >= 0" json:"prep_time"`
	CookTime     int                `gorm:"not null;default:0;check:cook_time >= 0" json:"cook_time"`
	Servings     int                `gorm:"not null;default:1;check:servings >= 1" json:"servings"`
	Difficulty   Difficulty         `gorm:"size:10;not null;index" json:"difficulty"`
	UsageCount   int                `gorm:"not null;default:0" json:"usage_count"`
	ImageURL     string             `gorm:"size:512" json:"image_url,omitempty"`
	UserID       uuid.UUID          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	FamilyID     uuid.UUID          `gorm:"type:varchar(36);not null;index" json:"family_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Ingredients  []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	Ratings      []RecipeRating     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ratings"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Scores returns the raw rating scores of the recipe.
func (r *Recipe) Scores() []ratings.Scores {
	scores := make([]ratings.Scores, len(r.Ratings))
	for i := range r.Ratings {
		scores[i] = r.Ratings[i].Scores()
	}
	return scores
}

// RecipeIngredient is one line of a recipe's ingredient set.
type RecipeIngredient struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);not null;index" json:"recipe_id"`
	ItemID    uuid.UUID `gorm:"type:varchar(36);not null;index" json:"item_id"`
	Item      *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"item,omitempty"`
	Quantity  float64   `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Unit      string    `gorm:"size:50;not null" json:"unit"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (i *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// RecipeRating is a single user's rating. At most one exists per (recipe, user).
type RecipeRating struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	RecipeID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"recipe_id"`
	UserID     uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_ratings_recipe_user" json:"user_id"`
	Nutrition  *int      `gorm:"check:nutrition BETWEEN 0 AND 5" json:"nutrition"`
	Flavor     *int      `gorm:"check:flavor BETWEEN 0 AND 5" json:"flavor"`
	Difficulty *int      `gorm:"check:difficulty BETWEEN 0 AND 5" json:"difficulty"`
	Comment    *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (RecipeRating) TableName() string {
	return "recipe_ratings"
}

func (r *RecipeRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *RecipeRating) Scores() ratings.Scores {
	return ratings.Scores{Nutrition: r.Nutrition, Flavor: r.Flavor, Difficulty: r.Difficulty}
}
