package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/pageza/familyrecipes/backend/internal/pkg/errors"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse maps err onto its wire code. Server-side failures get a
// generic message so storage details never reach the client.
func NewErrorResponse(err error) (int, ErrorResponse) {
	status := apperrors.Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		msg = "internal server error"
	}
	return status, ErrorResponse{Code: apperrors.Code(err), Message: msg}
}

// ErrorHandler renders the last error attached to the context as JSON and
// turns panics into INTERNAL_ERROR responses.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Recovered from panic", "panic", rec, "path", c.Request.URL.Path)
				status, body := NewErrorResponse(fmt.Errorf("%w: %v", apperrors.ErrInternal, rec))
				c.AbortWithStatusJSON(status, body)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := NewErrorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", "path", c.Request.URL.Path, "code", body.Code, "error", err)
		} else {
			log.Debug("Request rejected", "path", c.Request.URL.Path, "code", body.Code, "error", err)
		}
		c.JSON(status, body)
	}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
