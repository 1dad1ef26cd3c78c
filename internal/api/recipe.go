package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/familyrecipes/backend/internal/middleware"
	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/service"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

const maxPhotoFormBytes = 6 << 20

// RouteGuards are the middleware the recipe routes are mounted behind. Nil
// entries are skipped.
type RouteGuards struct {
	Auth        gin.HandlerFunc
	Creator     gin.HandlerFunc
	CreateLimit gin.HandlerFunc
	RateLimit   gin.HandlerFunc
}

type RecipeHandler struct {
	recipes        service.IRecipeService
	ratingsEnabled bool
	log            *logger.Logger
}

func NewRecipeHandler(recipes service.IRecipeService, ratingsEnabled bool, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:        recipes,
		ratingsEnabled: ratingsEnabled,
		log:            log.With("handler", "RecipeHandler"),
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, guards RouteGuards) {
	recipes := router.Group("/recipes", chain(guards.Auth)...)
	{
		recipes.GET("", h.ListMyRecipes)
		recipes.POST("", append(chain(guards.Creator, guards.CreateLimit), h.CreateRecipe)...)
		recipes.GET("/family/:familyId", h.ListFamilyRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/rate", append(chain(guards.RateLimit), h.RateRecipe)...)
		recipes.POST("/:id/clone", h.CloneRecipe)
		recipes.POST("/:id/photo", h.UploadPhoto)
	}
}

func (h *RecipeHandler) ListMyRecipes(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query types.RecipeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	recipes, err := h.recipes.ListMyRecipes(c.Request.Context(), actor, &query)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ListFamilyRecipes(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	familyID, ok := uuidParam(c, "familyId")
	if !ok {
		return
	}
	var query types.RecipeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	recipes, err := h.recipes.ListRecipes(c.Request.Context(), actor, familyID, &query)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipeWithDetails(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), actor, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully", "id": id})
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	if !h.ratingsEnabled {
		_ = c.Error(fmt.Errorf("%w: recipe ratings are turned off", apperrors.ErrFeatureDisabled))
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req types.RateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	recipe, err := h.recipes.RateRecipe(c.Request.Context(), actor, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CloneRecipe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.CloneRecipe(c.Request.Context(), id, actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UploadPhoto(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoFormBytes)
	header, err := c.FormFile("photo")
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: photo file is required", apperrors.ErrValidation))
		return
	}
	file, err := header.Open()
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	recipe, err := h.recipes.UploadPhoto(c.Request.Context(), actor, id, &types.PhotoUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) actor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthorized)
		return policy.Actor{}, false
	}
	return actor, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid %s", apperrors.ErrValidation, name))
		return uuid.Nil, false
	}
	return id, true
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
