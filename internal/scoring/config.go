package scoring

import (
	"errors"
	"fmt"
	"time"
)

// PenaltyKind selects how distance from the ideal cooking time is scored
type PenaltyKind string

const (
	PenaltyLinear      PenaltyKind = "linear"
	PenaltyExponential PenaltyKind = "exponential"
	PenaltyStepped     PenaltyKind = "stepped"
)

// Weights are the relative contributions of each sub-score
type Weights struct {
	Food       float64 `mapstructure:"food" json:"food"`
	Cooking    float64 `mapstructure:"cooking" json:"cooking"`
	Budget     float64 `mapstructure:"budget" json:"budget"`
	Variety    float64 `mapstructure:"variety" json:"variety"`
	Overlap    float64 `mapstructure:"overlap" json:"overlap"`
	Popularity float64 `mapstructure:"popularity" json:"popularity"`
}

// TimeRange is a labeled cooking-time band in minutes. Ideal must lie
// strictly between Min and Max.
type TimeRange struct {
	Label string `mapstructure:"label" json:"label"`
	Min   int    `mapstructure:"min" json:"min"`
	Max   int    `mapstructure:"max" json:"max"`
	Ideal int    `mapstructure:"ideal" json:"ideal"`
}

// CookingConfig tunes the cooking habit score
type CookingConfig struct {
	Ranges          []TimeRange `mapstructure:"ranges" json:"ranges"`
	Penalty         PenaltyKind `mapstructure:"penalty" json:"penalty"`
	ExponentialRate float64     `mapstructure:"exponential_rate" json:"exponential_rate"`
	StepSize        float64     `mapstructure:"step_size" json:"step_size"`
	StepWidth       float64     `mapstructure:"step_width" json:"step_width"`
	BandMismatch    float64     `mapstructure:"band_mismatch" json:"band_mismatch"`
}

// BudgetConfig tunes the budget score. DecayRate is score points lost per
// percent over budget.
type BudgetConfig struct {
	DecayRate          float64 `mapstructure:"decay_rate" json:"decay_rate"`
	UnknownCostScore   float64 `mapstructure:"unknown_cost_score" json:"unknown_cost_score"`
	DefaultMealsPerDay int     `mapstructure:"default_meals_per_day" json:"default_meals_per_day"`
}

// VarietyConfig tunes the history penalty
type VarietyConfig struct {
	RecencyPenalty   float64       `mapstructure:"recency_penalty" json:"recency_penalty"`
	FrequencyPenalty float64       `mapstructure:"frequency_penalty" json:"frequency_penalty"`
	Window           time.Duration `mapstructure:"window" json:"window"`
}

// Config is the full scoring configuration
type Config struct {
	Weights  Weights       `mapstructure:"weights" json:"weights"`
	Cooking  CookingConfig `mapstructure:"cooking" json:"cooking"`
	Budget   BudgetConfig  `mapstructure:"budget" json:"budget"`
	Variety  VarietyConfig `mapstructure:"variety" json:"variety"`
	Parallel int           `mapstructure:"parallel" json:"parallel"`
}

// DefaultConfig returns the production tuning
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Food:       0.25,
			Cooking:    0.20,
			Budget:     0.20,
			Variety:    0.15,
			Overlap:    0.10,
			Popularity: 0.10,
		},
		Cooking: CookingConfig{
			Ranges: []TimeRange{
				{Label: "quick", Min: 0, Max: 30, Ideal: 15},
				{Label: "medium", Min: 31, Max: 60, Ideal: 45},
				{Label: "long", Min: 61, Max: 240, Ideal: 90},
			},
			Penalty:         PenaltyLinear,
			ExponentialRate: 3,
			StepSize:        10,
			StepWidth:       0.2,
			BandMismatch:    20,
		},
		Budget: BudgetConfig{
			DecayRate:          1.0,
			UnknownCostScore:   70,
			DefaultMealsPerDay: 3,
		},
		Variety: VarietyConfig{
			RecencyPenalty:   50,
			FrequencyPenalty: 10,
			Window:           14 * 24 * time.Hour,
		},
	}
}

// Validate reports configuration that would make scores fall outside 0..100
func (c Config) Validate() error {
	var errs []error

	w := c.Weights
	for name, v := range map[string]float64{
		"food": w.Food, "cooking": w.Cooking, "budget": w.Budget,
		"variety": w.Variety, "overlap": w.Overlap, "popularity": w.Popularity,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weight %s must not be negative", name))
		}
	}
	if w.Food+w.Cooking+w.Budget+w.Variety+w.Popularity <= 0 {
		errs = append(errs, errors.New("at least one non-overlap weight must be positive"))
	}

	if len(c.Cooking.Ranges) == 0 {
		errs = append(errs, errors.New("cooking ranges must not be empty"))
	}
	for i, r := range c.Cooking.Ranges {
		if r.Label == "" {
			errs = append(errs, fmt.Errorf("cooking range %d has no label", i))
		}
		if !(r.Min < r.Ideal && r.Ideal < r.Max) {
			errs = append(errs, fmt.Errorf("cooking range %q needs min < ideal < max", r.Label))
		}
		if i > 0 && r.Min <= c.Cooking.Ranges[i-1].Max {
			errs = append(errs, fmt.Errorf("cooking range %q overlaps the previous range", r.Label))
		}
	}
	switch c.Cooking.Penalty {
	case PenaltyLinear:
	case PenaltyExponential:
		if c.Cooking.ExponentialRate <= 0 {
			errs = append(errs, errors.New("exponential rate must be positive"))
		}
	case PenaltyStepped:
		if c.Cooking.StepSize <= 0 || c.Cooking.StepWidth <= 0 {
			errs = append(errs, errors.New("stepped penalty needs positive step size and width"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown penalty kind %q", c.Cooking.Penalty))
	}

	if c.Budget.DecayRate <= 0 {
		errs = append(errs, errors.New("budget decay rate must be positive"))
	}
	if c.Budget.UnknownCostScore < 0 || c.Budget.UnknownCostScore > 100 {
		errs = append(errs, errors.New("unknown cost score must be within [0,100]"))
	}
	if c.Variety.Window <= 0 {
		errs = append(errs, errors.New("variety window must be positive"))
	}
	return errors.Join(errs...)
}
