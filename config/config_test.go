package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/pageza/alchemorsel-v2/recommender/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CI", "ENV", "SERVER_PORT", "SERVER_HOST", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER",
	"DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "SQLITE_PATH", "REDIS_HOST", "REDIS_PORT",
	"REDIS_PASSWORD", "REDIS_DB", "REDIS_URL", "SPOONACULAR_URL", "SPOONACULAR_API_KEY",
	"SPOONACULAR_TIMEOUT", "S3_BUCKET_NAME", "AWS_REGION", "CORS_ORIGINS",
	"MEAL_PLAN_RATE_LIMIT", "SOURCE_TIMEOUT", "CACHE_TTL", "LOG_LEVEL", "TUNING_FILE",
}

// cleanEnv blanks every variable LoadConfig reads and points secrets at an
// empty temp directory, which it returns
func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	return dir
}

func writeSecret(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o600))
}

func TestLoadConfigWithDefaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ENV", "test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Env)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "recommender", cfg.DBName)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 30, cfg.MealPlanRateLimit)
	assert.Equal(t, 10*time.Second, cfg.SpoonacularTimeout)
	assert.Equal(t, 8*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Empty(t, cfg.SpoonacularAPIKey)
}

func TestLoadConfig(t *testing.T) {
	dir := cleanEnv(t)
	t.Setenv("ENV", "development")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/catalog.db")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com,")
	t.Setenv("MEAL_PLAN_RATE_LIMIT", "5")
	t.Setenv("CACHE_TTL", "12h")
	t.Setenv("SPOONACULAR_API_KEY", "from-env")
	writeSecret(t, dir, "spoonacular_api_key", "from-secret")
	writeSecret(t, dir, "redis_password", "redis-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Env)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/catalog.db", cfg.SQLitePath)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.MealPlanRateLimit)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)

	t.Run("environment variable wins over secret", func(t *testing.T) {
		assert.Equal(t, "from-env", cfg.SpoonacularAPIKey)
	})

	t.Run("secret fills a missing variable", func(t *testing.T) {
		assert.Equal(t, "redis-secret", cfg.RedisPassword)
	})
}

func TestLoadConfigCI(t *testing.T) {
	dir := cleanEnv(t)
	t.Setenv("CI", "true")
	writeSecret(t, dir, "db_password", "ignored-in-ci")

	_, err := LoadConfig()
	require.Error(t, err, "CI reads the database password from the environment only")

	t.Setenv("DB_PASSWORD", "ci-password")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, CI, cfg.Env)
	assert.Equal(t, "ci-password", cfg.DBPassword)
	assert.Contains(t, cfg.DSN(), "password=ci-password")
}

func TestLoadConfigProductionRequirements(t *testing.T) {
	dir := cleanEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"DB_PASSWORD", "SPOONACULAR_API_KEY", "S3_BUCKET_NAME"}, fields)

	writeSecret(t, dir, "db_password", "pg")
	writeSecret(t, dir, "spoonacular_api_key", "key")
	t.Setenv("S3_BUCKET_NAME", "catalog-images")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.DBPassword)
	assert.Equal(t, "key", cfg.SpoonacularAPIKey)

	t.Setenv("DB_DRIVER", "sqlite")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "sqlite is not allowed in production")
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REDIS_DB", "one", "REDIS_DB"},
		{"SOURCE_TIMEOUT", "soon", "SOURCE_TIMEOUT"},
		{"SOURCE_TIMEOUT", "0s", "SOURCE_TIMEOUT: must be positive"},
		{"MEAL_PLAN_RATE_LIMIT", "-1", "MEAL_PLAN_RATE_LIMIT"},
		{"DB_DRIVER", "mysql", `unsupported driver "mysql"`},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("ENV", "test")
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("production"))
	assert.Equal(t, Production, ParseEnvironment(" PROD "))
	assert.Equal(t, Test, ParseEnvironment("test"))
	assert.Equal(t, CI, ParseEnvironment("ci"))
	assert.Equal(t, Development, ParseEnvironment(""))
	assert.Equal(t, Development, ParseEnvironment("staging"))

	t.Setenv("ENV", "production")
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
	assert.False(t, IsProduction())
}

func TestLoadTuning(t *testing.T) {
	t.Run("defaults when no file exists", func(t *testing.T) {
		tuning, err := LoadTuning("")
		require.NoError(t, err)
		assert.Equal(t, DefaultTuning(), tuning)
	})

	t.Run("file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tuning.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
scoring:
  weights:
    food: 0.4
    overlap: 0
  cooking:
    penalty: stepped
    ranges:
      - {label: quick, min: 0, max: 20, ideal: 10}
      - {label: slow, min: 21, max: 180, ideal: 60}
  variety:
    window: 72h
planner:
  min_score: 45
  enforce_budget: false
`), 0o600))

		tuning, err := LoadTuning(path)
		require.NoError(t, err)

		defaults := DefaultTuning()
		assert.Equal(t, 0.4, tuning.Scoring.Weights.Food)
		assert.Equal(t, 0.0, tuning.Scoring.Weights.Overlap)
		assert.Equal(t, defaults.Scoring.Weights.Cooking, tuning.Scoring.Weights.Cooking)
		assert.Equal(t, scoring.PenaltyStepped, tuning.Scoring.Cooking.Penalty)
		assert.Equal(t, []scoring.TimeRange{
			{Label: "quick", Min: 0, Max: 20, Ideal: 10},
			{Label: "slow", Min: 21, Max: 180, Ideal: 60},
		}, tuning.Scoring.Cooking.Ranges)
		assert.Equal(t, 72*time.Hour, tuning.Scoring.Variety.Window)
		assert.Equal(t, 45.0, tuning.Planner.MinScore)
		assert.False(t, tuning.Planner.EnforceBudget)
		assert.Equal(t, defaults.Planner.MaxCandidates, tuning.Planner.MaxCandidates)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("TUNING_SCORING_WEIGHTS_FOOD", "0.5")
		t.Setenv("TUNING_PLANNER_MAX_CANDIDATES", "40")

		tuning, err := LoadTuning("")
		require.NoError(t, err)
		assert.Equal(t, 0.5, tuning.Scoring.Weights.Food)
		assert.Equal(t, 40, tuning.Planner.MaxCandidates)
	})

	t.Run("invalid tuning", func(t *testing.T) {
		t.Setenv("TUNING_SCORING_WEIGHTS_BUDGET", "-1")
		_, err := LoadTuning("")
		assert.ErrorContains(t, err, "invalid scoring tuning")
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestGeneratePresignedURL(t *testing.T) {
	s3cfg := NewS3ConfigFromAWS(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}, "catalog-images")

	url, err := s3cfg.GeneratePresignedURL(context.Background(), "recipes/42.jpg", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "catalog-images")
	assert.Contains(t, url, "recipes/42.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=3600")

	_, err = s3cfg.GeneratePresignedURL(context.Background(), "", time.Hour)
	assert.Error(t, err)
}
