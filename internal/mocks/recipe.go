package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func details(args mock.Arguments) (*types.RecipeDetails, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeDetails), args.Error(1)
}

func detailsList(args mock.Arguments) ([]*types.RecipeDetails, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.RecipeDetails), args.Error(1)
}

// CreateRecipe mocks the CreateRecipe method
func (m *MockRecipeService) CreateRecipe(ctx context.Context, actor policy.Actor, req *types.CreateRecipeRequest) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, actor, req))
}

// GetRecipeWithDetails mocks the GetRecipeWithDetails method
func (m *MockRecipeService) GetRecipeWithDetails(ctx context.Context, actor policy.Actor, id uuid.UUID) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, actor, id))
}

// UpdateRecipe mocks the UpdateRecipe method
func (m *MockRecipeService) UpdateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.UpdateRecipeRequest) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, actor, id, req))
}

// DeleteRecipe mocks the DeleteRecipe method
func (m *MockRecipeService) DeleteRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// RateRecipe mocks the RateRecipe method
func (m *MockRecipeService) RateRecipe(ctx context.Context, actor policy.Actor, id uuid.UUID, req *types.RateRecipeRequest) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, actor, id, req))
}

// CloneRecipe mocks the CloneRecipe method
func (m *MockRecipeService) CloneRecipe(ctx context.Context, sourceID uuid.UUID, actor policy.Actor) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, sourceID, actor))
}

// ListRecipes mocks the ListRecipes method
func (m *MockRecipeService) ListRecipes(ctx context.Context, actor policy.Actor, familyID uuid.UUID, query *types.RecipeListQuery) ([]*types.RecipeDetails, error) {
	return detailsList(m.Called(ctx, actor, familyID, query))
}

// ListMyRecipes mocks the ListMyRecipes method
func (m *MockRecipeService) ListMyRecipes(ctx context.Context, actor policy.Actor, query *types.RecipeListQuery) ([]*types.RecipeDetails, error) {
	return detailsList(m.Called(ctx, actor, query))
}

// UploadPhoto mocks the UploadPhoto method
func (m *MockRecipeService) UploadPhoto(ctx context.Context, actor policy.Actor, id uuid.UUID, upload *types.PhotoUpload) (*types.RecipeDetails, error) {
	return details(m.Called(ctx, actor, id, upload))
}
