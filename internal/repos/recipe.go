package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/familyrecipes/backend/internal/models"
	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
)

// RecipeFilter narrows recipe listings. Minimum-rating filtering is applied by
// the service on top of the listing.
type RecipeFilter struct {
	FamilyID    *uuid.UUID
	OwnerID     *uuid.UUID
	Name        string
	Difficulty  models.Difficulty
	MaxPrepTime *int
	MaxCookTime *int
	Ingredient  string
}

// CountFilter narrows Count. MinJointRating compares against the mean over a
// recipe's ratings of (nutrition + flavor + difficulty) / 3, nulls as zero.
type CountFilter struct {
	OwnerID        *uuid.UUID
	FamilyID       *uuid.UUID
	Difficulty     models.Difficulty
	MinJointRating *float64
	RatedOnly      bool
}

// RecipeChanges is a partial update. Nil fields are left untouched. A non-nil
// Ingredients replaces the whole ingredient set, even when it points at an
// empty slice.
type RecipeChanges struct {
	Name         *string
	Description  *string
	Instructions *string
	PrepTime     *int
	CookTime     *int
	Servings     *int
	Difficulty   *models.Difficulty
	ImageURL     *string
	Ingredients  *[]models.RecipeIngredient
}

// RatingFields is a partial rating. Nil fields keep their stored value on
// update and are stored as NULL on insert.
type RatingFields struct {
	Nutrition  *int
	Flavor     *int
	Difficulty *int
	Comment    *string
}

type RecipeRepo interface {
	Create(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient) (*models.Recipe, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	Update(ctx context.Context, id uuid.UUID, changes RecipeChanges) (*models.Recipe, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID, filter RecipeFilter) ([]*models.Recipe, error)
	UpsertRating(ctx context.Context, recipeID, userID uuid.UUID, fields RatingFields) (*models.RecipeRating, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter CountFilter) (int64, error)
	CountRatings(ctx context.Context) (int64, error)
	AverageJointRating(ctx context.Context) (float64, error)
	Transaction(ctx context.Context, fn func(repo RecipeRepo) error) error
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	repoLog := baseLog.With("repo", "RecipeRepo")
	return &recipeRepo{db: db, log: repoLog}
}

// Transaction runs fn against a repo bound to a single database transaction.
func (r *recipeRepo) Transaction(ctx context.Context, fn func(repo RecipeRepo) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recipeRepo{db: tx, log: r.log})
	})
	return translate("transaction", err)
}

func (r *recipeRepo) Create(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient) (*models.Recipe, error) {
	var created *models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe.Ingredients = nil
		recipe.Ratings = nil
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := insertIngredients(tx, recipe.ID, ingredients); err != nil {
			return err
		}
		var err error
		created, err = loadRecipe(tx, recipe.ID)
		return err
	})
	if err != nil {
		r.log.Warn("create recipe failed", "name", recipe.Name, "error", err)
		return nil, translate("create recipe", err)
	}
	return created, nil
}

func (r *recipeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := loadRecipe(r.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get recipe", err)
	}
	return recipe, nil
}

func (r *recipeRepo) Update(ctx context.Context, id uuid.UUID, changes RecipeChanges) (*models.Recipe, error) {
	var updated *models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		if err := tx.Select("id").First(&existing, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(changes.columns()).Error; err != nil {
			return err
		}

		if changes.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := insertIngredients(tx, id, *changes.Ingredients); err != nil {
				return err
			}
		}

		var err error
		updated, err = loadRecipe(tx, id)
		return err
	})
	if err != nil {
		return nil, translate("update recipe", err)
	}
	return updated, nil
}

func (r *recipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete recipe", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete recipe %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *recipeRepo) List(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error) {
	query := r.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.FamilyID != nil {
		query = query.Where("recipes.family_id = ?", *filter.FamilyID)
	}
	if filter.OwnerID != nil {
		query = query.Where("recipes.user_id = ?", *filter.OwnerID)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("LOWER(recipes.name) LIKE ? ESCAPE '\\'", like(name))
	}
	if filter.Difficulty != "" {
		query = query.Where("recipes.difficulty = ?", filter.Difficulty)
	}
	if filter.MaxPrepTime != nil {
		query = query.Where("recipes.prep_time <= ?", *filter.MaxPrepTime)
	}
	if filter.MaxCookTime != nil {
		query = query.Where("recipes.cook_time <= ?", *filter.MaxCookTime)
	}
	if ingredient := strings.TrimSpace(filter.Ingredient); ingredient != "" {
		withItem := r.db.Model(&models.RecipeIngredient{}).
			Select("recipe_ingredients.recipe_id").
			Joins("JOIN items ON items.id = recipe_ingredients.item_id").
			Where("LOWER(items.name) LIKE ? ESCAPE '\\'", like(ingredient))
		query = query.Where("recipes.id IN (?)", withItem)
	}

	var recipes []*models.Recipe
	if err := withDetails(query).Order("recipes.created_at DESC").Find(&recipes).Error; err != nil {
		return nil, translate("list recipes", err)
	}
	return recipes, nil
}

func (r *recipeRepo) ListByFamily(ctx context.Context, familyID uuid.UUID, filter RecipeFilter) ([]*models.Recipe, error) {
	filter.FamilyID = &familyID
	return r.List(ctx, filter)
}

func (r *recipeRepo) UpsertRating(ctx context.Context, recipeID, userID uuid.UUID, fields RatingFields) (*models.RecipeRating, error) {
	var rating models.RecipeRating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		row := models.RecipeRating{
			RecipeID:   recipeID,
			UserID:     userID,
			Nutrition:  fields.Nutrition,
			Flavor:     fields.Flavor,
			Difficulty: fields.Difficulty,
			Comment:    fields.Comment,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(fields.columns()),
		}).Create(&row).Error; err != nil {
			return err
		}

		return tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&rating).Error
	})
	if err != nil {
		return nil, translate("upsert rating", err)
	}
	return &rating, nil
}

func (r *recipeRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return translate("increment usage", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("increment usage %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *recipeRepo) Count(ctx context.Context, filter CountFilter) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.OwnerID != nil {
		query = query.Where("recipes.user_id = ?", *filter.OwnerID)
	}
	if filter.FamilyID != nil {
		query = query.Where("recipes.family_id = ?", *filter.FamilyID)
	}
	if filter.Difficulty != "" {
		query = query.Where("recipes.difficulty = ?", filter.Difficulty)
	}
	if filter.RatedOnly {
		rated := r.db.Model(&models.RecipeRating{}).Select("recipe_id")
		query = query.Where("recipes.id IN (?)", rated)
	}
	if filter.MinJointRating != nil {
		qualifying := r.db.Model(&models.RecipeRating{}).
			Select("recipe_id").
			Group("recipe_id").
			Having("AVG("+jointScoreSQL+") >= ?", *filter.MinJointRating)
		query = query.Where("recipes.id IN (?)", qualifying)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, translate("count recipes", err)
	}
	return count, nil
}

func (r *recipeRepo) CountRatings(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RecipeRating{}).Count(&count).Error; err != nil {
		return 0, translate("count ratings", err)
	}
	return count, nil
}

// AverageJointRating is the mean joint score over every rating row with at
// least one field set.
func (r *recipeRepo) AverageJointRating(ctx context.Context) (float64, error) {
	var avg float64
	row := r.db.WithContext(ctx).Model(&models.RecipeRating{}).
		Select("COALESCE(AVG(" + jointScoreSQL + "), 0)").
		Where("nutrition IS NOT NULL OR flavor IS NOT NULL OR difficulty IS NOT NULL").
		Row()
	if err := row.Scan(&avg); err != nil {
		return 0, translate("average rating", err)
	}
	return avg, nil
}

const jointScoreSQL = "(COALESCE(nutrition, 0) + COALESCE(flavor, 0) + COALESCE(difficulty, 0)) / 3.0"

func withDetails(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.created_at ASC")
		}).
		Preload("Ingredients.Item").
		Preload("Ratings", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ratings.created_at ASC")
		})
}

func loadRecipe(tx *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(tx).First(&recipe, "recipes.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func insertIngredients(tx *gorm.DB, recipeID uuid.UUID, ingredients []models.RecipeIngredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, len(ingredients))
	for i, in := range ingredients {
		rows[i] = models.RecipeIngredient{
			RecipeID: recipeID,
			ItemID:   in.ItemID,
			Quantity: in.Quantity,
			Unit:     in.Unit,
			Notes:    in.Notes,
		}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

func (c RecipeChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{"updated_at": time.Now()}
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.Instructions != nil {
		cols["instructions"] = *c.Instructions
	}
	if c.PrepTime != nil {
		cols["prep_time"] = *c.PrepTime
	}
	if c.CookTime != nil {
		cols["cook_time"] = *c.CookTime
	}
	if c.Servings != nil {
		cols["servings"] = *c.Servings
	}
	if c.Difficulty != nil {
		cols["difficulty"] = *c.Difficulty
	}
	if c.ImageURL != nil {
		cols["image_url"] = *c.ImageURL
	}
	return cols
}

func (f RatingFields) columns() []string {
	cols := []string{"updated_at"}
	if f.Nutrition != nil {
		cols = append(cols, "nutrition")
	}
	if f.Flavor != nil {
		cols = append(cols, "flavor")
	}
	if f.Difficulty != nil {
		cols = append(cols, "difficulty")
	}
	if f.Comment != nil {
		cols = append(cols, "comment")
	}
	return cols
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like builds a substring pattern that matches s literally.
func like(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// translate maps storage errors onto the application error kinds.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrPersistence):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrPersistence, err)
	}
}
