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

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration. DBDriver is "postgres" or "sqlite"; SQLitePath
	// is only read for sqlite.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration. RedisURL wins over host and port when set.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Third-party recipe API
	SpoonacularURL     string
	SpoonacularAPIKey  string
	SpoonacularTimeout time.Duration

	// Catalog images
	S3Bucket  string
	AWSRegion string

	CORSOrigins       []string
	MealPlanRateLimit int
	SourceTimeout     time.Duration
	CacheTTL          time.Duration
	LogLevel          string
	TuningFile        string
}

// LoadConfig creates a new Config instance with values from environment
// variables, a local .env file and Docker secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	// A missing .env is normal outside local development
	if env != CI {
		_ = godotenv.Load()
	}

	cfg := &Config{Env: env}
	var err error
	switch env {
	case CI:
		err = loadCIConfig(cfg)
	case Development, Test, Production:
		err = loadSecretConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadCommon(cfg *Config) error {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBName = getEnv("DB_NAME", "recommender")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "recommender.db")

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.SpoonacularURL = os.Getenv("SPOONACULAR_URL")
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.TuningFile = os.Getenv("TUNING_FILE")

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return err
	}
	if cfg.MealPlanRateLimit, err = getInt("MEAL_PLAN_RATE_LIMIT", 30); err != nil {
		return err
	}
	if cfg.SpoonacularTimeout, err = getDuration("SPOONACULAR_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	if cfg.SourceTimeout, err = getDuration("SOURCE_TIMEOUT", 8*time.Second); err != nil {
		return err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 48*time.Hour); err != nil {
		return err
	}
	return nil
}

// loadCIConfig reads sensitive values from environment variables only
func loadCIConfig(cfg *Config) error {
	if err := loadCommon(cfg); err != nil {
		return err
	}
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.SpoonacularAPIKey = os.Getenv("SPOONACULAR_API_KEY")
	return nil
}

// loadSecretConfig prefers an environment variable and falls back to the
// matching Docker secret for sensitive values
func loadSecretConfig(cfg *Config) error {
	if err := loadCommon(cfg); err != nil {
		return err
	}
	cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password")
	cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password")
	cfg.SpoonacularAPIKey = envOrSecret("SPOONACULAR_API_KEY", "spoonacular_api_key")
	return nil
}

// DSN is the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func envOrSecret(key, secret string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return readSecret(secret)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
