package planner

import (
	"errors"
	"fmt"
)

// Config tunes meal plan assembly
type Config struct {
	// EnforceBudget makes the per-meal budget a hard selection constraint
	// until relaxation drops it. Otherwise budget only affects the score.
	EnforceBudget bool `mapstructure:"enforce_budget" json:"enforce_budget"`
	// MinScore is the lowest aggregate score accepted before the final
	// relaxation step.
	MinScore float64 `mapstructure:"min_score" json:"min_score"`
	// CandidateMultiplier scales the requested meal total into the number of
	// candidates asked from each source.
	CandidateMultiplier int `mapstructure:"candidate_multiplier" json:"candidate_multiplier"`
	MaxCandidates       int `mapstructure:"max_candidates" json:"max_candidates"`
}

// DefaultConfig returns the production planner tuning
func DefaultConfig() Config {
	return Config{
		EnforceBudget:       true,
		MinScore:            30,
		CandidateMultiplier: 3,
		MaxCandidates:       100,
	}
}

// Validate checks the planner tuning
func (c Config) Validate() error {
	var errs []error
	if c.MinScore < 0 || c.MinScore > 100 {
		errs = append(errs, fmt.Errorf("min score %.1f outside [0,100]", c.MinScore))
	}
	if c.CandidateMultiplier < 1 {
		errs = append(errs, errors.New("candidate multiplier must be at least 1"))
	}
	if c.MaxCandidates < 1 {
		errs = append(errs, errors.New("max candidates must be at least 1"))
	}
	return errors.Join(errs...)
}
