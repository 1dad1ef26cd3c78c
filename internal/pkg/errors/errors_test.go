package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", fmt.Errorf("%w: servings must be >= 1", ErrValidation), "VALIDATION_ERROR", http.StatusBadRequest},
		{"not found", fmt.Errorf("get recipe: %w", ErrNotFound), "NOT_FOUND", http.StatusNotFound},
		{"forbidden", ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{"feature disabled", fmt.Errorf("%w: ratings", ErrFeatureDisabled), "FEATURE_DISABLED", http.StatusForbidden},
		{"persistence", fmt.Errorf("create recipe: %w: %w", ErrPersistence, fmt.Errorf("fk violation")), "PERSISTENCE_ERROR", http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}
