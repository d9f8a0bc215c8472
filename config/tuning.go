package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-v2/recommender/internal/planner"
	"github.com/pageza/alchemorsel-v2/recommender/internal/scoring"
	"github.com/spf13/viper"
)

// Tuning groups the scoring and planning knobs that product wants to change
// without a release
type Tuning struct {
	Scoring scoring.Config `mapstructure:"scoring"`
	Planner planner.Config `mapstructure:"planner"`
}

// DefaultTuning returns the built-in tuning
func DefaultTuning() Tuning {
	return Tuning{
		Scoring: scoring.DefaultConfig(),
		Planner: planner.DefaultConfig(),
	}
}

// LoadTuning reads tuning from path, or from tuning.yaml in the working or
// config directory when path is empty. TUNING_* variables override scalar
// keys, e.g. TUNING_SCORING_WEIGHTS_FOOD. A missing default file is not an
// error.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	v := viper.New()
	v.SetEnvPrefix("TUNING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setTuningDefaults(v, t)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tuning")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Tuning{}, fmt.Errorf("failed to read tuning: %w", err)
		}
	}

	if err := v.Unmarshal(&t); err != nil {
		return Tuning{}, fmt.Errorf("failed to decode tuning: %w", err)
	}
	if err := t.Scoring.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid scoring tuning: %w", err)
	}
	if err := t.Planner.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid planner tuning: %w", err)
	}
	return t, nil
}

// setTuningDefaults registers the scalar keys so environment overrides are
// seen by Unmarshal. Cooking ranges can only come from a file.
func setTuningDefaults(v *viper.Viper, t Tuning) {
	s := t.Scoring
	defaults := map[string]any{
		"scoring.weights.food":                 s.Weights.Food,
		"scoring.weights.cooking":              s.Weights.Cooking,
		"scoring.weights.budget":               s.Weights.Budget,
		"scoring.weights.variety":              s.Weights.Variety,
		"scoring.weights.overlap":              s.Weights.Overlap,
		"scoring.weights.popularity":           s.Weights.Popularity,
		"scoring.cooking.penalty":              string(s.Cooking.Penalty),
		"scoring.cooking.exponential_rate":     s.Cooking.ExponentialRate,
		"scoring.cooking.step_size":            s.Cooking.StepSize,
		"scoring.cooking.step_width":           s.Cooking.StepWidth,
		"scoring.cooking.band_mismatch":        s.Cooking.BandMismatch,
		"scoring.budget.decay_rate":            s.Budget.DecayRate,
		"scoring.budget.unknown_cost_score":    s.Budget.UnknownCostScore,
		"scoring.budget.default_meals_per_day": s.Budget.DefaultMealsPerDay,
		"scoring.variety.recency_penalty":      s.Variety.RecencyPenalty,
		"scoring.variety.frequency_penalty":    s.Variety.FrequencyPenalty,
		"scoring.variety.window":               s.Variety.Window,
		"scoring.parallel":                     s.Parallel,
		"planner.enforce_budget":               t.Planner.EnforceBudget,
		"planner.min_score":                    t.Planner.MinScore,
		"planner.candidate_multiplier":         t.Planner.CandidateMultiplier,
		"planner.max_candidates":               t.Planner.MaxCandidates,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
