// Package seed loads a sample family, its pantry items and recipes into a
// fresh database.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/familyrecipes/backend/internal/models"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/service"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

//go:embed recipes.json
var recipesJSON []byte

// FamilyID is the id shared by every sample member.
var FamilyID = stableID("family")

// Member is a sample family member. Ids are derived from the name so tokens
// issued for a member stay valid across reseeds.
type Member struct {
	Name string
	Role string
}

// Members of the sample family.
var Members = []Member{
	{Name: "alex", Role: "parent"},
	{Name: "sam", Role: "member"},
	{Name: "riley", Role: "child"},
}

// Actor returns the identity of the member.
func (m Member) Actor() policy.Actor {
	return policy.Actor{UserID: stableID("user:" + m.Name), Role: m.Role, FamilyID: FamilyID}
}

// FindMember looks a sample member up by name.
func FindMember(name string) (Member, bool) {
	for _, m := range Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

type ingredientSeed struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    *string `json:"notes"`
}

type recipeSeed struct {
	Owner        string            `json:"owner"`
	Name         string            `json:"name"`
	Description  *string           `json:"description"`
	Instructions string            `json:"instructions"`
	PrepTime     int               `json:"prep_time"`
	CookTime     int               `json:"cook_time"`
	Servings     int               `json:"servings"`
	Difficulty   models.Difficulty `json:"difficulty"`
	Ingredients  []ingredientSeed  `json:"ingredients"`
}

// Result summarizes a seeding run.
type Result struct {
	Items   int
	Recipes int
	Ratings int
}

// Run inserts the sample items, then creates each recipe through recipes as
// its owner and has every other member rate it.
func Run(ctx context.Context, db *gorm.DB, recipes service.IRecipeService, log *logger.Logger) (Result, error) {
	var seeds []recipeSeed
	if err := json.Unmarshal(recipesJSON, &seeds); err != nil {
		return Result{}, fmt.Errorf("parse seed recipes: %w", err)
	}

	var res Result
	items := make(map[string]uuid.UUID)
	for _, s := range seeds {
		for _, in := range s.Ingredients {
			if _, ok := items[in.Item]; ok {
				continue
			}
			item := models.Item{ID: stableID("item:" + in.Item), Name: in.Item}
			if err := db.WithContext(ctx).Where(models.Item{ID: item.ID}).FirstOrCreate(&item).Error; err != nil {
				return res, fmt.Errorf("seed item %q: %w", in.Item, err)
			}
			items[in.Item] = item.ID
			res.Items++
		}
	}

	for i, s := range seeds {
		owner, ok := FindMember(s.Owner)
		if !ok {
			return res, fmt.Errorf("seed recipe %q: unknown owner %q", s.Name, s.Owner)
		}

		req := &types.CreateRecipeRequest{
			Name:         s.Name,
			Description:  s.Description,
			Instructions: s.Instructions,
			PrepTime:     s.PrepTime,
			CookTime:     s.CookTime,
			Servings:     s.Servings,
			Difficulty:   s.Difficulty,
		}
		for _, in := range s.Ingredients {
			req.Ingredients = append(req.Ingredients, types.IngredientInput{
				ItemID:   items[in.Item],
				Quantity: in.Quantity,
				Unit:     in.Unit,
				Notes:    in.Notes,
			})
		}

		created, err := recipes.CreateRecipe(ctx, owner.Actor(), req)
		if err != nil {
			return res, fmt.Errorf("seed recipe %q: %w", s.Name, err)
		}
		res.Recipes++
		log.Info("Seeded recipe", "name", created.Name, "id", created.ID)

		for j, m := range Members {
			if m.Name == owner.Name {
				continue
			}
			score := (i+j)%5 + 1
			rating := &types.RateRecipeRequest{Flavor: &score}
			if j%2 == 0 {
				nutrition := 5 - score
				rating.Nutrition = &nutrition
			}
			if _, err := recipes.RateRecipe(ctx, m.Actor(), created.ID, rating); err != nil {
				return res, fmt.Errorf("rate seed recipe %q as %s: %w", s.Name, m.Name, err)
			}
			res.Ratings++
		}
	}
	return res, nil
}

func stableID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("familyrecipes:seed:"+name))
}
