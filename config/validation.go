package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks that the loaded configuration is usable. The names in
// the messages follow where the value is read from in the current environment.
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	required := func(value, field string) {
		if value == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required"})
		}
	}

	required(cfg.ServerPort, "SERVER_PORT")
	required(cfg.DBHost, "DB_HOST")
	required(cfg.DBName, "DB_NAME")

	if cfg.RedisURL == "" {
		required(cfg.RedisHost, "REDIS_HOST")
	}

	switch env {
	case CI:
		required(cfg.DBUser, "DB_USER")
		required(cfg.JWTSecret, "TEST_JWT_SECRET")
	case Production:
		required(cfg.DBUser, "db_user secret")
		required(cfg.DBPassword, "db_password secret")
		required(cfg.JWTSecret, "jwt_secret secret")
	default:
		required(cfg.DBUser, "db_user secret or DB_USER")
		required(cfg.JWTSecret, "jwt_secret secret or JWT_SECRET")
	}

	if len(cfg.CreateRoles) == 0 {
		errs = append(errs, ValidationError{Field: "RECIPE_CREATE_ROLES", Message: "must list at least one role"})
	}
	if len(cfg.RateRoles) == 0 {
		errs = append(errs, ValidationError{Field: "RECIPE_RATE_ROLES", Message: "must list at least one role"})
	}
	if cfg.MetricsInterval <= 0 {
		errs = append(errs, ValidationError{Field: "METRICS_REFRESH_INTERVAL", Message: "must be positive"})
	}
	if cfg.DBMaxOpenConns <= 0 {
		errs = append(errs, ValidationError{Field: "DB_MAX_OPEN_CONNS", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
