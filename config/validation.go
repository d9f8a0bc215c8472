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

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// requirements lists the settings that must be non-empty per environment.
// Development runs without the third-party API and falls back to sqlite.
var requirements = map[Environment][]string{
	Development: {"SERVER_PORT"},
	Test:        {"SERVER_PORT"},
	CI:          {"SERVER_PORT", "DB_PASSWORD"},
	Production:  {"SERVER_PORT", "DB_PASSWORD", "SPOONACULAR_API_KEY", "S3_BUCKET_NAME"},
}

// ValidateConfig checks if the configuration meets the requirements for
// its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	values := map[string]string{
		"SERVER_PORT":         cfg.ServerPort,
		"DB_PASSWORD":         cfg.DBPassword,
		"SPOONACULAR_API_KEY": cfg.SpoonacularAPIKey,
		"S3_BUCKET_NAME":      cfg.S3Bucket,
	}
	for _, field := range requirements[cfg.Env] {
		if cfg.DBDriver == "sqlite" && field == "DB_PASSWORD" {
			continue
		}
		if values[field] == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required in " + string(cfg.Env)})
		}
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}
	if cfg.DBDriver == "sqlite" && cfg.Env == Production {
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: "sqlite is not allowed in production"})
	}
	if cfg.MealPlanRateLimit < 0 {
		errs = append(errs, ValidationError{Field: "MEAL_PLAN_RATE_LIMIT", Message: "must not be negative"})
	}
	if cfg.SourceTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "SOURCE_TIMEOUT", Message: "must be positive"})
	}
	if cfg.CacheTTL <= 0 {
		errs = append(errs, ValidationError{Field: "CACHE_TTL", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
