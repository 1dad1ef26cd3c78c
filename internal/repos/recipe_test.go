package repos

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/familyrecipes/backend/internal/models"
	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/ratings"
	"github.com/pageza/familyrecipes/backend/internal/testhelpers"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func floatPtr(v float64) *float64 { return &v }

type fixture struct {
	db     *gorm.DB
	repo   RecipeRepo
	flour  models.Item
	sugar  models.Item
	eggs   models.Item
	owner  uuid.UUID
	family uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.SetupSQLiteDB(t)
	return &fixture{
		db:     db,
		repo:   NewRecipeRepo(db, logger.NewNop()),
		flour:  testhelpers.CreateItem(t, db, "Flour"),
		sugar:  testhelpers.CreateItem(t, db, "Brown Sugar"),
		eggs:   testhelpers.CreateItem(t, db, "Eggs"),
		owner:  uuid.New(),
		family: uuid.New(),
	}
}

func (f *fixture) createRecipe(t *testing.T, name string, difficulty models.Difficulty, items ...models.Item) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Name:         name,
		Instructions: "Mix and bake.",
		PrepTime:     10,
		CookTime:     20,
		Servings:     4,
		Difficulty:   difficulty,
		UserID:       f.owner,
		FamilyID:     f.family,
	}
	lines := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.RecipeIngredient{ItemID: item.ID, Quantity: 1, Unit: "cup"})
	}
	created, err := f.repo.Create(context.Background(), recipe, lines)
	require.NoError(t, err)
	return created
}

func itemIDs(lines []models.RecipeIngredient) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID.String())
	}
	sort.Strings(ids)
	return ids
}

func names(recipes []*models.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Name)
	}
	return out
}

func TestCreateAndGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createRecipe(t, "Pancakes", models.DifficultyEasy, f.flour, f.eggs)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 0, created.UsageCount)

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pancakes", got.Name)
	assert.Equal(t, f.owner, got.UserID)
	assert.Equal(t, f.family, got.FamilyID)
	assert.Equal(t, itemIDs([]models.RecipeIngredient{{ItemID: f.flour.ID}, {ItemID: f.eggs.ID}}), itemIDs(got.Ingredients))
	for _, line := range got.Ingredients {
		require.NotNil(t, line.Item)
		assert.NotEmpty(t, line.Item.Name)
	}
	assert.Empty(t, got.Ratings)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	f := newFixture(t)

	got, err := f.repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateWithUnknownItemLeavesNoRows(t *testing.T) {
	f := newFixture(t)
	recipe := &models.Recipe{
		Name:         "Broken",
		Instructions: "n/a",
		Servings:     1,
		Difficulty:   models.DifficultyEasy,
		UserID:       f.owner,
		FamilyID:     f.family,
	}
	lines := []models.RecipeIngredient{
		{ItemID: f.flour.ID, Quantity: 1, Unit: "cup"},
		{ItemID: uuid.New(), Quantity: 1, Unit: "cup"},
	}

	_, err := f.repo.Create(context.Background(), recipe, lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	var recipes, ingredients int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Count(&ingredients).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, ingredients)
}

func TestUpdateReplacesIngredients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Cookies", models.DifficultyMedium, f.flour, f.sugar)

	replacement := []models.RecipeIngredient{{ItemID: f.eggs.ID, Quantity: 2, Unit: "whole"}}
	updated, err := f.repo.Update(ctx, created.ID, RecipeChanges{
		Name:        strPtr("Better Cookies"),
		Ingredients: &replacement,
	})
	require.NoError(t, err)

	assert.Equal(t, "Better Cookies", updated.Name)
	assert.Equal(t, "Mix and bake.", updated.Instructions)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.eggs.ID, updated.Ingredients[0].ItemID)
	assert.Equal(t, 2.0, updated.Ingredients[0].Quantity)
}

func TestUpdateWithoutIngredientsKeepsThem(t *testing.T) {
	f := newFixture(t)
	created := f.createRecipe(t, "Bread", models.DifficultyHard, f.flour)

	updated, err := f.repo.Update(context.Background(), created.ID, RecipeChanges{Servings: intPtr(8)})
	require.NoError(t, err)

	assert.Equal(t, 8, updated.Servings)
	assert.Len(t, updated.Ingredients, 1)
}

func TestUpdateWithEmptyIngredientsClearsThem(t *testing.T) {
	f := newFixture(t)
	created := f.createRecipe(t, "Bread", models.DifficultyHard, f.flour)

	empty := []models.RecipeIngredient{}
	updated, err := f.repo.Update(context.Background(), created.ID, RecipeChanges{Ingredients: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Ingredients)
}

func TestUpdateFailedReplacementKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Muffins", models.DifficultyEasy, f.flour, f.sugar)

	bad := []models.RecipeIngredient{{ItemID: uuid.New(), Quantity: 1, Unit: "cup"}}
	_, err := f.repo.Update(ctx, created.ID, RecipeChanges{Name: strPtr("Renamed"), Ingredients: &bad})
	require.ErrorIs(t, err, apperrors.ErrPersistence)

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Muffins", got.Name)
	assert.Len(t, got.Ingredients, 2)
}

func TestUpdateMissingRecipe(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Update(context.Background(), uuid.New(), RecipeChanges{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Soup", models.DifficultyEasy, f.flour, f.eggs)
	_, err := f.repo.UpsertRating(ctx, created.ID, uuid.New(), RatingFields{Flavor: intPtr(4)})
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, created.ID))

	var ingredients, ratingRows int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&ingredients).Error)
	require.NoError(t, f.db.Model(&models.RecipeRating{}).Where("recipe_id = ?", created.ID).Count(&ratingRows).Error)
	assert.Zero(t, ingredients)
	assert.Zero(t, ratingRows)

	var items int64
	require.NoError(t, f.db.Model(&models.Item{}).Count(&items).Error)
	assert.Equal(t, int64(3), items)
}

func TestDeleteMissingRecipe(t *testing.T) {
	f := newFixture(t)

	err := f.repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpsertRatingMergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Stew", models.DifficultyMedium)
	rater := uuid.New()

	first, err := f.repo.UpsertRating(ctx, created.ID, rater, RatingFields{Nutrition: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, *first.Nutrition)
	assert.Nil(t, first.Flavor)

	second, err := f.repo.UpsertRating(ctx, created.ID, rater, RatingFields{Flavor: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Nutrition)
	assert.Equal(t, 4, *second.Nutrition)
	require.NotNil(t, second.Flavor)
	assert.Equal(t, 2, *second.Flavor)
	assert.Nil(t, second.Difficulty)

	var rows int64
	require.NoError(t, f.db.Model(&models.RecipeRating{}).Where("recipe_id = ? AND user_id = ?", created.ID, rater).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestUpsertRatingAllFieldsAbsent(t *testing.T) {
	f := newFixture(t)
	created := f.createRecipe(t, "Toast", models.DifficultyEasy)

	rating, err := f.repo.UpsertRating(context.Background(), created.ID, uuid.New(), RatingFields{})
	require.NoError(t, err)
	assert.Nil(t, rating.Nutrition)
	assert.Nil(t, rating.Flavor)
	assert.Nil(t, rating.Difficulty)
}

func TestUpsertRatingMissingRecipe(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpsertRating(context.Background(), uuid.New(), uuid.New(), RatingFields{Flavor: intPtr(3)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIncrementUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Rice", models.DifficultyEasy)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.repo.IncrementUsage(ctx, created.ID))
	}

	got, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.UsageCount)

	assert.ErrorIs(t, f.repo.IncrementUsage(ctx, uuid.New()), apperrors.ErrNotFound)
}

func TestListByFamilyFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createRecipe(t, "Sugar Cookies", models.DifficultyEasy, f.flour, f.sugar)
	f.createRecipe(t, "Omelette", models.DifficultyMedium, f.eggs)
	slow := f.createRecipe(t, "Sourdough", models.DifficultyHard, f.flour)
	_, err := f.repo.Update(ctx, slow.ID, RecipeChanges{PrepTime: intPtr(120), CookTime: intPtr(45)})
	require.NoError(t, err)

	seaSalt := testhelpers.CreateItem(t, f.db, "Sea_Salt")
	f.createRecipe(t, "100% Rye", models.DifficultyEasy, seaSalt)

	other := uuid.New()
	_, err = f.repo.Create(ctx, &models.Recipe{
		Name: "Sugar Pie", Instructions: "Bake.", Servings: 2, Difficulty: models.DifficultyEasy,
		UserID: uuid.New(), FamilyID: other,
	}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter RecipeFilter
		want   []string
	}{
		{"no filter", RecipeFilter{}, []string{"Sugar Cookies", "Omelette", "Sourdough", "100% Rye"}},
		{"name substring is case-insensitive", RecipeFilter{Name: "sugar"}, []string{"Sugar Cookies"}},
		{"difficulty", RecipeFilter{Difficulty: models.DifficultyMedium}, []string{"Omelette"}},
		{"max prep time", RecipeFilter{MaxPrepTime: intPtr(30)}, []string{"Sugar Cookies", "Omelette", "100% Rye"}},
		{"max cook time", RecipeFilter{MaxCookTime: intPtr(20)}, []string{"Sugar Cookies", "Omelette", "100% Rye"}},
		{"ingredient item name", RecipeFilter{Ingredient: "flour"}, []string{"Sugar Cookies", "Sourdough"}},
		{"ingredient partial match", RecipeFilter{Ingredient: "SUG"}, []string{"Sugar Cookies"}},
		{"combined", RecipeFilter{Ingredient: "flour", Difficulty: models.DifficultyHard}, []string{"Sourdough"}},
		{"percent in name is literal", RecipeFilter{Name: "0%"}, []string{"100% Rye"}},
		{"lone percent", RecipeFilter{Name: "%"}, []string{"100% Rye"}},
		{"underscore in name is literal", RecipeFilter{Name: "_"}, nil},
		{"backslash in name is literal", RecipeFilter{Name: `\`}, nil},
		{"underscore in ingredient is literal", RecipeFilter{Ingredient: "a_s"}, []string{"100% Rye"}},
		{"underscore does not match any character", RecipeFilter{Ingredient: "r_"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.repo.ListByFamily(ctx, f.family, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createRecipe(t, "Mine", models.DifficultyEasy)
	_, err := f.repo.Create(ctx, &models.Recipe{
		Name: "Theirs", Instructions: "x", Servings: 1, Difficulty: models.DifficultyEasy,
		UserID: uuid.New(), FamilyID: f.family,
	}, nil)
	require.NoError(t, err)

	got, err := f.repo.List(ctx, RecipeFilter{OwnerID: &f.owner})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine"}, names(got))
}

func TestCountUsesJointRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Per-field flavor average is 5, joint score is (0 + 5 + 0) / 3.
	flavorOnly := f.createRecipe(t, "Flavor Only", models.DifficultyEasy)
	_, err := f.repo.UpsertRating(ctx, flavorOnly.ID, uuid.New(), RatingFields{Flavor: intPtr(5)})
	require.NoError(t, err)

	balanced := f.createRecipe(t, "Balanced", models.DifficultyMedium)
	_, err = f.repo.UpsertRating(ctx, balanced.ID, uuid.New(), RatingFields{Nutrition: intPtr(3), Flavor: intPtr(3), Difficulty: intPtr(3)})
	require.NoError(t, err)
	_, err = f.repo.UpsertRating(ctx, balanced.ID, uuid.New(), RatingFields{Nutrition: intPtr(4), Flavor: intPtr(4), Difficulty: intPtr(4)})
	require.NoError(t, err)

	f.createRecipe(t, "Unrated", models.DifficultyEasy)

	tests := []struct {
		name   string
		filter CountFilter
		want   int64
	}{
		{"all", CountFilter{}, 3},
		{"owner", CountFilter{OwnerID: &f.owner}, 3},
		{"family", CountFilter{FamilyID: &f.family}, 3},
		{"other family", CountFilter{FamilyID: uuidPtr(uuid.New())}, 0},
		{"difficulty", CountFilter{Difficulty: models.DifficultyEasy}, 2},
		{"rated only", CountFilter{RatedOnly: true}, 2},
		{"joint rating at least 3", CountFilter{MinJointRating: floatPtr(3)}, 1},
		{"joint rating at least 1.5", CountFilter{MinJointRating: floatPtr(1.5)}, 2},
		{"joint rating at least 4", CountFilter{MinJointRating: floatPtr(4)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetricsQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avg, err := f.repo.AverageJointRating(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	recipe := f.createRecipe(t, "Curry", models.DifficultyHard)
	_, err = f.repo.UpsertRating(ctx, recipe.ID, uuid.New(), RatingFields{Nutrition: intPtr(3), Flavor: intPtr(3), Difficulty: intPtr(3)})
	require.NoError(t, err)
	_, err = f.repo.UpsertRating(ctx, recipe.ID, uuid.New(), RatingFields{Flavor: intPtr(3)})
	require.NoError(t, err)
	// Rows with no fields set are excluded from the average.
	_, err = f.repo.UpsertRating(ctx, recipe.ID, uuid.New(), RatingFields{Comment: strPtr("no scores")})
	require.NoError(t, err)

	count, err := f.repo.CountRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	avg, err = f.repo.AverageJointRating(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 1e-9)

	// The SQL aggregate and the in-memory rule agree.
	loaded, err := f.repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.InDelta(t, ratings.JointAverage(loaded.Scores()), avg, 1e-9)
}

func TestTransactionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRecipe(t, "Tacos", models.DifficultyEasy)

	err := f.repo.Transaction(ctx, func(tx RecipeRepo) error {
		if _, err := tx.UpsertRating(ctx, created.ID, uuid.New(), RatingFields{Flavor: intPtr(5)}); err != nil {
			return err
		}
		return tx.IncrementUsage(ctx, uuid.New())
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	count, err := f.repo.CountRatings(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
