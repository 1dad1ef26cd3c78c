package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/familyrecipes/backend/internal/api"
	"github.com/pageza/familyrecipes/backend/internal/middleware"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
)

// Dependencies are the collaborators the HTTP routes are built from.
type Dependencies struct {
	Recipes         *api.RecipeHandler
	Health          *api.HealthHandler
	Tokens          middleware.TokenValidator
	CreatorRoles    []string
	CreationLimiter *middleware.RateLimiter
	RatingLimiter   *middleware.RateLimiter
	Metrics         http.Handler
	CORSOrigins     []string
	Log             *logger.Logger
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(deps.Log),
		middleware.ErrorHandler(deps.Log),
		middleware.CORS(deps.CORSOrigins),
	)

	if deps.Health != nil {
		router.GET("/health", deps.Health.Health)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	guards := api.RouteGuards{
		Auth:    middleware.AuthMiddleware(deps.Tokens),
		Creator: middleware.RequireCreator(deps.CreatorRoles),
	}
	if deps.CreationLimiter != nil {
		guards.CreateLimit = deps.CreationLimiter.RateLimitMiddleware()
	}
	if deps.RatingLimiter != nil {
		guards.RateLimit = deps.RatingLimiter.RateLimitMiddleware()
	}

	v1 := router.Group("/api/v1")
	deps.Recipes.RegisterRoutes(v1, guards)

	return router
}
