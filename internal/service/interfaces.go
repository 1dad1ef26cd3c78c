package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, actor policy.Actor, req *types.CreateRecipeRequest) (*types.RecipeDetails, error)
	GetRecipeWithDetails(ctx context.Context, actor policy.Actor, id uuid.UUID) (*types.RecipeDetails, error)
	UpdateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.UpdateRecipeRequest) (*types.RecipeDetails, error)
	DeleteRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	RateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.RateRecipeRequest) (*types.RecipeDetails, error)
	CloneRecipe(ctx context.Context, sourceID uuid.UUID, actor policy.Actor) (*types.RecipeDetails, error)
	ListRecipes(ctx context.Context, actor policy.Actor, familyID uuid.UUID, query *types.RecipeListQuery) ([]*types.RecipeDetails, error)
	ListMyRecipes(ctx context.Context, actor policy.Actor, query *types.RecipeListQuery) ([]*types.RecipeDetails, error)
	UploadPhoto(ctx context.Context, actor policy.Actor, id uuid.UUID, upload *types.PhotoUpload) (*types.RecipeDetails, error)
}

// PhotoStore persists recipe photos and returns their public URL.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
