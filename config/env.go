package config

import (
	"os"
)

// Environment is the deployment stage the process runs in
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads the stage from ENV. CI=true wins over ENV.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// DefaultLogMode is the logger mode used when LOG_MODE is unset
func (e Environment) DefaultLogMode() string {
	if e == Production {
		return "prod"
	}
	return "dev"
}

// IsProduction returns true if the current environment is production
func IsProduction() bool {
	return GetEnvironment() == Production
}
