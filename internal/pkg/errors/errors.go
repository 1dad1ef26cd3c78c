package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or out-of-range input. Raised before any write.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when a referenced recipe does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when an authenticated actor may not perform an action.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when no valid identity accompanies a request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPersistence wraps storage failures and aborted transactions.
	ErrPersistence = errors.New("persistence error")
	// ErrFeatureDisabled is returned for operations switched off by configuration.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrUnavailable is returned when an optional backing service is not configured.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInternal is the catch-all for unexpected failures.
	ErrInternal = errors.New("internal error")
)

type kind struct {
	err    error
	code   string
	status int
}

var kinds = []kind{
	{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrFeatureDisabled, "FEATURE_DISABLED", http.StatusForbidden},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrUnavailable, "UNAVAILABLE", http.StatusServiceUnavailable},
	{ErrPersistence, "PERSISTENCE_ERROR", http.StatusInternalServerError},
}

// Code returns the wire code for err, falling back to INTERNAL_ERROR.
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "INTERNAL_ERROR"
}

// Status returns the HTTP status code that err maps to.
func Status(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
