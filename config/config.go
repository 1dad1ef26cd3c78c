package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSecretsDir      = "/run/secrets"
	defaultMetricsInterval = 60 * time.Second
	defaultDBMaxOpenConns  = 25
)

var (
	defaultCreateRoles = []string{"admin", "parent", "member"}
	defaultRateRoles   = []string{"admin", "parent", "member", "child"}
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string
	LogMode     string

	// Database configuration
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	MigrationsDir  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Recipe settings
	CreateRoles     []string
	RateRoles       []string
	RatingsEnabled  bool
	MetricsInterval time.Duration

	// Photo storage; an empty bucket disables uploads
	S3Bucket  string
	AWSRegion string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := loadRecipeSettings(cfg); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig loads configuration for CI, where secrets arrive as plain environment variables
func loadCIConfig(cfg *Config) error {
	loadServerEnv(cfg)

	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}
	return nil
}

// loadDevConfig loads .env when present, then falls back from secret files to env vars
func loadDevConfig(cfg *Config) error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	loadServerEnv(cfg)
	cfg.DBUser = secretOrEnv("db_user", "DB_USER")
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD")
	cfg.JWTSecret = secretOrEnv("jwt_secret", "JWT_SECRET")
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD")
	return nil
}

// loadProdConfig loads configuration for production, credentials only from Docker secrets
func loadProdConfig(cfg *Config) {
	loadServerEnv(cfg)
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
}

func loadServerEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.LogMode = getEnv("LOG_MODE", GetEnvironment().DefaultLogMode())
	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", "migrations")

	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisDB = 0

	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
}

func loadRecipeSettings(cfg *Config) error {
	cfg.CreateRoles = defaultCreateRoles
	if v := os.Getenv("RECIPE_CREATE_ROLES"); v != "" {
		cfg.CreateRoles = splitList(v)
	}
	cfg.RateRoles = defaultRateRoles
	if v := os.Getenv("RECIPE_RATE_ROLES"); v != "" {
		cfg.RateRoles = splitList(v)
	}

	cfg.RatingsEnabled = true
	if v := os.Getenv("RECIPE_RATINGS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RECIPE_RATINGS_ENABLED %q: %w", v, err)
		}
		cfg.RatingsEnabled = enabled
	}

	cfg.MetricsInterval = defaultMetricsInterval
	if v := os.Getenv("METRICS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_REFRESH_INTERVAL %q: %w", v, err)
		}
		cfg.MetricsInterval = d
	}

	cfg.DBMaxOpenConns = defaultDBMaxOpenConns
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", v, err)
		}
		cfg.DBMaxOpenConns = n
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = defaultSecretsDir
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func secretOrEnv(secret, envVar string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
