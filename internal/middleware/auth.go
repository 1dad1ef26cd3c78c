package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/policy"
	"github.com/pageza/familyrecipes/backend/internal/types"
)

const (
	actorKey  = "actor"
	userIDKey = "user_id"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates JWT tokens and stores
// the caller's identity on the context.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, fmt.Errorf("%w: missing authorization header", apperrors.ErrUnauthorized))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, fmt.Errorf("%w: invalid authorization header format", apperrors.ErrUnauthorized))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abort(c, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err))
			return
		}

		c.Set(actorKey, policy.Actor{
			UserID:   claims.UserID,
			Role:     claims.Role,
			FamilyID: claims.FamilyID,
		})
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// ActorFromContext returns the identity stored by AuthMiddleware.
func ActorFromContext(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	return actor, ok
}

// RequireCreator rejects callers whose role may not create recipes.
func RequireCreator(roles []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			abort(c, apperrors.ErrUnauthorized)
			return
		}
		if err := policy.Require(policy.CanCreate(actor, roles), "create recipes"); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}
