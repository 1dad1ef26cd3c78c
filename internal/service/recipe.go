package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pageza/familyrecipes/backend/internal/models"
	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/ratings"
	"github.com/pageza/familyrecipes/backend/internal/repos"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

// CopySuffix is appended to the name of a cloned recipe.
const CopySuffix = " (Copy)"

const maxPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// RecipeService handles recipe operations. Every operation that targets an
// existing recipe checks existence first, then permission, then writes.
type RecipeService struct {
	repo      repos.RecipeRepo
	photos    PhotoStore
	rateRoles []string
	validate  *validator.Validate
	log       *logger.Logger
}

// Ensure RecipeService implements IRecipeService
var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService. photos may be nil, in which
// case photo uploads report ErrUnavailable.
func NewRecipeService(repo repos.RecipeRepo, photos PhotoStore, rateRoles []string, log *logger.Logger) *RecipeService {
	v := validator.New()
	v.SetTagName("binding")
	return &RecipeService{
		repo:      repo,
		photos:    photos,
		rateRoles: rateRoles,
		validate:  v,
		log:       log.With("service", "RecipeService"),
	}
}

// CreateRecipe stores a recipe owned by the actor. Role gating happens at the
// HTTP boundary.
func (s *RecipeService) CreateRecipe(ctx context.Context, actor policy.Actor, req *types.CreateRecipeRequest) (*types.RecipeDetails, error) {
	if err := policy.Require(policy.CanOwn(actor), "create recipe without a family"); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		UserID:       actor.UserID,
		FamilyID:     actor.FamilyID,
	}
	created, err := s.repo.Create(ctx, recipe, toIngredients(req.Ingredients))
	if err != nil {
		return nil, err
	}

	s.log.Info("recipe created", "recipe_id", created.ID, "user_id", actor.UserID)
	return types.NewRecipeDetails(created), nil
}

// GetRecipeWithDetails returns the recipe with ratings and derived averages.
func (s *RecipeService) GetRecipeWithDetails(ctx context.Context, actor policy.Actor, id uuid.UUID) (*types.RecipeDetails, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.CanRead(actor, resourceOf(recipe)), "read recipe"); err != nil {
		return nil, err
	}
	return types.NewRecipeDetails(recipe), nil
}

// UpdateRecipe applies a partial update. Only the owner may update; family
// membership is not enough.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.UpdateRecipeRequest) (*types.RecipeDetails, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.IsOwner(actor, resourceOf(recipe)), "update recipe"); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	changes := repos.RecipeChanges{
		Name:         trimmed(req.Name),
		Description:  req.Description,
		Instructions: req.Instructions,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
	}
	if req.Ingredients != nil {
		ingredients := toIngredients(req.Ingredients)
		changes.Ingredients = &ingredients
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return types.NewRecipeDetails(updated), nil
}

// DeleteRecipe removes a recipe together with its ingredients and ratings.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Require(policy.IsOwner(actor, resourceOf(recipe)), "delete recipe"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("recipe deleted", "recipe_id", id, "user_id", actor.UserID)
	return nil
}

// RateRecipe records the actor's rating and counts it as a use of the recipe.
// The upsert and the usage increment commit together.
func (s *RecipeService) RateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.RateRecipeRequest) (*types.RecipeDetails, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.CanRate(actor, resourceOf(recipe), s.rateRoles), "rate recipe"); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	scores := ratings.Scores{Nutrition: req.Nutrition, Flavor: req.Flavor, Difficulty: req.Difficulty}
	if !ratings.InRange(scores) {
		return nil, fmt.Errorf("%w: rating scores must be between 0 and %d", apperrors.ErrValidation, ratings.MaxScore)
	}

	fields := repos.RatingFields{
		Nutrition:  req.Nutrition,
		Flavor:     req.Flavor,
		Difficulty: req.Difficulty,
		Comment:    req.Comment,
	}
	err = s.repo.Transaction(ctx, func(tx repos.RecipeRepo) error {
		if _, err := tx.UpsertRating(ctx, id, actor.UserID, fields); err != nil {
			return err
		}
		return tx.IncrementUsage(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return types.NewRecipeDetails(refreshed), nil
}

// CloneRecipe copies a readable recipe into a new one owned by the actor. The
// copy gets fresh ids, a zero usage count and no ratings.
func (s *RecipeService) CloneRecipe(ctx context.Context, sourceID uuid.UUID, actor policy.Actor) (*types.RecipeDetails, error) {
	source, err := s.load(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.CanRead(actor, resourceOf(source)) && policy.CanOwn(actor), "clone recipe"); err != nil {
		return nil, err
	}

	clone := &models.Recipe{
		Name:         source.Name + CopySuffix,
		Description:  copyString(source.Description),
		Instructions: source.Instructions,
		PrepTime:     source.PrepTime,
		CookTime:     source.CookTime,
		Servings:     source.Servings,
		Difficulty:   source.Difficulty,
		ImageURL:     source.ImageURL,
		UserID:       actor.UserID,
		FamilyID:     actor.FamilyID,
	}
	ingredients := make([]models.RecipeIngredient, len(source.Ingredients))
	for i, in := range source.Ingredients {
		ingredients[i] = models.RecipeIngredient{
			ItemID:   in.ItemID,
			Quantity: in.Quantity,
			Unit:     in.Unit,
			Notes:    copyString(in.Notes),
		}
	}

	created, err := s.repo.Create(ctx, clone, ingredients)
	if err != nil {
		return nil, err
	}
	s.log.Info("recipe cloned", "source_id", sourceID, "recipe_id", created.ID, "user_id", actor.UserID)
	return types.NewRecipeDetails(created), nil
}

// ListRecipes lists a family's recipes. Family membership alone gates the
// listing. min_rating is compared against each recipe's average flavor score.
func (s *RecipeService) ListRecipes(ctx context.Context, actor policy.Actor, familyID uuid.UUID, query *types.RecipeListQuery) ([]*types.RecipeDetails, error) {
	if err := policy.Require(policy.CanListFamily(actor, familyID), "list family recipes"); err != nil {
		return nil, err
	}
	return s.list(query, func(filter repos.RecipeFilter) ([]*models.Recipe, error) {
		return s.repo.ListByFamily(ctx, familyID, filter)
	})
}

// ListMyRecipes lists the recipes the actor owns.
func (s *RecipeService) ListMyRecipes(ctx context.Context, actor policy.Actor, query *types.RecipeListQuery) ([]*types.RecipeDetails, error) {
	owner := actor.UserID
	return s.list(query, func(filter repos.RecipeFilter) ([]*models.Recipe, error) {
		filter.OwnerID = &owner
		return s.repo.List(ctx, filter)
	})
}

// UploadPhoto stores a photo for a recipe and records its URL. Owner only.
func (s *RecipeService) UploadPhoto(ctx context.Context, actor policy.Actor, id uuid.UUID, upload *types.PhotoUpload) (*types.RecipeDetails, error) {
	if s.photos == nil {
		return nil, fmt.Errorf("%w: photo storage is not configured", apperrors.ErrUnavailable)
	}
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(policy.IsOwner(actor, resourceOf(recipe)), "upload recipe photo"); err != nil {
		return nil, err
	}

	ext, ok := allowedPhotoTypes[upload.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported photo type %q", apperrors.ErrValidation, upload.ContentType)
	}
	if len(upload.Data) == 0 || len(upload.Data) > maxPhotoBytes {
		return nil, fmt.Errorf("%w: photo must be between 1 byte and %d bytes", apperrors.ErrValidation, maxPhotoBytes)
	}

	key := path.Join("recipe-photos", id.String(), uuid.NewString()+ext)
	url, err := s.photos.Put(ctx, key, upload.ContentType, upload.Data)
	if err != nil {
		s.log.Error("photo upload failed", "recipe_id", id, "error", err)
		return nil, fmt.Errorf("upload photo: %w: %w", apperrors.ErrPersistence, err)
	}

	updated, err := s.repo.Update(ctx, id, repos.RecipeChanges{ImageURL: &url})
	if err != nil {
		return nil, err
	}
	return types.NewRecipeDetails(updated), nil
}

// list validates query, fetches with the repository filters it maps to and
// applies the min_rating post-filter.
func (s *RecipeService) list(query *types.RecipeListQuery, fetch func(repos.RecipeFilter) ([]*models.Recipe, error)) ([]*types.RecipeDetails, error) {
	if query == nil {
		query = &types.RecipeListQuery{}
	}
	if err := s.check(query); err != nil {
		return nil, err
	}

	recipes, err := fetch(repos.RecipeFilter{
		Name:        query.Name,
		Difficulty:  query.Difficulty,
		MaxPrepTime: query.MaxPrepTime,
		MaxCookTime: query.MaxCookTime,
		Ingredient:  query.Ingredient,
	})
	if err != nil {
		return nil, err
	}

	result := make([]*types.RecipeDetails, 0, len(recipes))
	for _, recipe := range recipes {
		details := types.NewRecipeDetails(recipe)
		if query.MinRating != nil && details.AverageRatings.Flavor < *query.MinRating {
			continue
		}
		result = append(result, details)
	}
	return result, nil
}

func (s *RecipeService) load(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, fmt.Errorf("recipe %s: %w", id, apperrors.ErrNotFound)
	}
	return recipe, nil
}

func (s *RecipeService) check(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

func resourceOf(r *models.Recipe) policy.Resource {
	return policy.Resource{OwnerID: r.UserID, FamilyID: r.FamilyID}
}

func toIngredients(in []types.IngredientInput) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, len(in))
	for i, ing := range in {
		out[i] = models.RecipeIngredient{
			ItemID:   ing.ItemID,
			Quantity: ing.Quantity,
			Unit:     strings.TrimSpace(ing.Unit),
			Notes:    ing.Notes,
		}
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
