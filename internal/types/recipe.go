package types

import (
	"fmt"
	"strings"
)

// Source identifies which upstream catalog produced a recipe
type Source string

const (
	SourceFirstParty Source = "first-party"
	SourceThirdParty Source = "third-party"
)

// ID prefixes for each source
const (
	FirstPartyPrefix = "tasty-"
	ThirdPartyPrefix = "spn-"
)

// MaxThirdPartyInstructions is the licensing cap on stored third-party steps
const MaxThirdPartyInstructions = 12

// UnknownIngredient is the placeholder name for unmappable ingredient records
const UnknownIngredient = "Unknown ingredient"

// MealType is a plan slot name
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnacks    MealType = "snacks"
)

// MealTypes lists the primary meal types in slot order
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnacks}

// IsMealType reports whether tag names one of the primary meal types
func IsMealType(tag string) bool {
	for _, mt := range MealTypes {
		if string(mt) == tag {
			return true
		}
	}
	return false
}

// Ingredient is the canonical ingredient shape shared by all sources
type Ingredient struct {
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
	OriginalText string  `json:"original_text"`
}

// Nutrition holds the macro breakdown of one serving
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// UnifiedRecipe is the candidate representation used by the whole pipeline.
// Values are built once by a source adapter and never mutated afterwards.
type UnifiedRecipe struct {
	ID              string       `json:"id"`
	Source          Source       `json:"source"`
	Title           string       `json:"title"`
	ImageURL        string       `json:"image_url"`
	ReadyInMinutes  int          `json:"ready_in_minutes"`
	Servings        int          `json:"servings"`
	Ingredients     []Ingredient `json:"ingredients"`
	Tags            []string     `json:"tags"`
	Cuisine         string       `json:"cuisine,omitempty"`
	Instructions    []string     `json:"instructions,omitempty"`
	Nutrition       *Nutrition   `json:"nutrition,omitempty"`
	PopularityScore *float64     `json:"popularity_score,omitempty"`
	CostPerServing  *float64     `json:"cost_per_serving,omitempty"`
}

// PrimaryMealType returns the leading meal-type tag, if any
func (r UnifiedRecipe) PrimaryMealType() (MealType, bool) {
	if len(r.Tags) == 0 || !IsMealType(r.Tags[0]) {
		return "", false
	}
	return MealType(r.Tags[0]), true
}

// HasTag reports whether the recipe carries tag (case-insensitive)
func (r UnifiedRecipe) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate reports structural problems that make a record unusable as a candidate
func (r UnifiedRecipe) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("recipe id is empty")
	case r.Source == SourceFirstParty && !strings.HasPrefix(r.ID, FirstPartyPrefix):
		return fmt.Errorf("recipe %s: first-party id must start with %q", r.ID, FirstPartyPrefix)
	case r.Source == SourceThirdParty && !strings.HasPrefix(r.ID, ThirdPartyPrefix):
		return fmt.Errorf("recipe %s: third-party id must start with %q", r.ID, ThirdPartyPrefix)
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("recipe %s: title is empty", r.ID)
	case r.ReadyInMinutes < 0:
		return fmt.Errorf("recipe %s: negative ready time", r.ID)
	case r.Servings < 1:
		return fmt.Errorf("recipe %s: servings must be at least 1", r.ID)
	case r.Source == SourceThirdParty && len(r.Instructions) > MaxThirdPartyInstructions:
		return fmt.Errorf("recipe %s: third-party instructions exceed %d steps", r.ID, MaxThirdPartyInstructions)
	}
	return nil
}

// NormalizeTags lowercases, trims and dedups tags, then moves the first
// meal-type tag to the front. Only one meal-type tag is treated as primary.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	primary := -1
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.ReplaceAll(t, " ", "-")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if primary < 0 && IsMealType(t) {
			primary = len(out)
		}
		out = append(out, t)
	}
	if primary > 0 {
		p := out[primary]
		copy(out[1:primary+1], out[:primary])
		out[0] = p
	}
	return out
}
