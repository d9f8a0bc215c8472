// Package scoring ranks candidates against a user's preferences. The
// dietary gate is a hard filter; every other sub-score is soft and blended
// by configurable weights.
package scoring

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pageza/alchemorsel-v2/recommender/internal/similarity"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"golang.org/x/sync/errgroup"
)

// Sub-score constants
const (
	FoodBase          = 50.0
	FavoriteBonus     = 10.0
	DislikePenalty    = 15.0
	DefaultPopularity = 50.0
)

// Breakdown holds the per-candidate sub-scores that do not depend on the
// plan being built
type Breakdown struct {
	Food       float64 `json:"food"`
	Cooking    float64 `json:"cooking"`
	Budget     float64 `json:"budget"`
	Variety    float64 `json:"variety"`
	Popularity float64 `json:"popularity"`
}

// Aggregate blends the breakdown with an ingredient overlap score. Weights
// are normalized so the result stays on the sub-score scale; pass a zero
// Overlap weight to ignore overlap.
func (b Breakdown) Aggregate(w Weights, overlap float64) float64 {
	total := w.Food + w.Cooking + w.Budget + w.Variety + w.Overlap + w.Popularity
	if total <= 0 {
		return 0
	}
	sum := w.Food*b.Food +
		w.Cooking*b.Cooking +
		w.Budget*b.Budget +
		w.Variety*b.Variety +
		w.Overlap*overlap +
		w.Popularity*b.Popularity
	return sum / total
}

// Engine computes scores. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg Config
	now func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now for variety scoring
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates cfg and creates an Engine
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	e := &Engine{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Weights returns the configured aggregate weights
func (e *Engine) Weights() Weights {
	return e.cfg.Weights
}

// Score computes the plan-independent breakdown for one candidate
func (e *Engine) Score(r types.UnifiedRecipe, prefs types.UserPreferences, history []types.HistoryItem) Breakdown {
	return Breakdown{
		Food:       FoodScore(r, prefs.Food),
		Cooking:    e.CookingScore(r.ReadyInMinutes, prefs.Cooking.PreferredDuration),
		Budget:     e.BudgetScore(r, prefs),
		Variety:    e.VarietyScore(r.ID, history),
		Popularity: PopularityScore(r),
	}
}

// ScoreAll scores candidates in parallel. The result is keyed by recipe id.
func (e *Engine) ScoreAll(ctx context.Context, recipes []types.UnifiedRecipe, prefs types.UserPreferences, history []types.HistoryItem) (map[string]Breakdown, error) {
	out := make(map[string]Breakdown, len(recipes))
	var mu sync.Mutex

	limit := e.cfg.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, r := range recipes {
		r := r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := e.Score(r, prefs, history)
			mu.Lock()
			out[r.ID] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}
	return out, nil
}

// FoodScore adds a bonus per favorite ingredient present and a penalty per
// disliked one. The result is not clamped.
func FoodScore(r types.UnifiedRecipe, food types.FoodPreferences) float64 {
	score := FoodBase
	for _, fav := range food.Favorites {
		if containsIngredient(r, fav) {
			score += FavoriteBonus
		}
	}
	for _, dis := range food.Dislikes {
		if containsIngredient(r, dis) {
			score -= DislikePenalty
		}
	}
	return score
}

func containsIngredient(r types.UnifiedRecipe, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), term) {
			return true
		}
	}
	return false
}

// BandIndex returns the index of the range containing minutes, clamping to
// the nearest range when minutes falls outside or between ranges
func (e *Engine) BandIndex(minutes int) int {
	ranges := e.cfg.Cooking.Ranges
	best, bestDist := 0, math.MaxInt
	for i, r := range ranges {
		if minutes >= r.Min && minutes <= r.Max {
			return i
		}
		dist := r.Min - minutes
		if minutes > r.Max {
			dist = minutes - r.Max
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// BandByLabel finds a range by label
func (e *Engine) BandByLabel(label string) (int, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return 0, false
	}
	for i, r := range e.cfg.Cooking.Ranges {
		if strings.ToLower(r.Label) == label {
			return i, true
		}
	}
	return 0, false
}

// TimeLimit returns the upper minute bound of the preferred band widened by
// widen bands. ok is false when no preference applies or the widened band
// is the last one, which is open-ended.
func (e *Engine) TimeLimit(preferred string, widen int) (int, bool) {
	idx, ok := e.BandByLabel(preferred)
	if !ok {
		return 0, false
	}
	idx += widen
	ranges := e.cfg.Cooking.Ranges
	if idx >= len(ranges)-1 {
		return 0, false
	}
	return ranges[idx].Max, true
}

// CookingScore maps minutes into its band and scores distance from that
// band's ideal with the configured penalty. Every point except the ideal
// scores below 100. A known preferred band costs BandMismatch per band of
// distance.
func (e *Engine) CookingScore(minutes int, preferred string) float64 {
	c := e.cfg.Cooking
	idx := e.BandIndex(minutes)
	band := c.Ranges[idx]

	v := min(max(minutes, band.Min), band.Max)
	span := float64(band.Max - band.Min)
	nd := math.Abs(float64(v-band.Ideal)) / span

	var score float64
	switch c.Penalty {
	case PenaltyExponential:
		score = 100 * math.Exp(-c.ExponentialRate*nd)
	case PenaltyStepped:
		score = 100 - c.StepSize*math.Ceil(nd/c.StepWidth)
	default:
		score = 100 * (1 - nd)
	}

	if p, ok := e.BandByLabel(preferred); ok {
		steps := idx - p
		if steps < 0 {
			steps = -steps
		}
		score -= c.BandMismatch * float64(steps)
	}
	return clamp(score, 0, 100)
}

// PerMealBudget converts the budget preference into an amount per meal.
// ok is false when no budget is set.
func (e *Engine) PerMealBudget(prefs types.UserPreferences) (float64, bool) {
	if prefs.Budget.Amount <= 0 {
		return 0, false
	}
	mealsPerDay := len(prefs.Cooking.MealTypes)
	if mealsPerDay == 0 {
		mealsPerDay = e.cfg.Budget.DefaultMealsPerDay
	}
	if mealsPerDay <= 0 {
		mealsPerDay = 3
	}
	return prefs.Budget.Amount / (periodDays(prefs.Budget.Frequency) * float64(mealsPerDay)), true
}

func periodDays(frequency string) float64 {
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case "daily":
		return 1
	case "monthly":
		return 30
	default:
		return 7
	}
}

// MealCost is the cost of cooking the recipe for the user's portions
func MealCost(r types.UnifiedRecipe, prefs types.UserPreferences) (float64, bool) {
	if r.CostPerServing == nil {
		return 0, false
	}
	return *r.CostPerServing * float64(prefs.Cooking.ServingsNeeded()), true
}

// BudgetScore is 100 at or under the per-meal budget and falls by DecayRate
// points per percent over, down to 0. Unpriced recipes get UnknownCostScore.
func (e *Engine) BudgetScore(r types.UnifiedRecipe, prefs types.UserPreferences) float64 {
	budget, ok := e.PerMealBudget(prefs)
	if !ok {
		return 100
	}
	cost, known := MealCost(r, prefs)
	if !known {
		return e.cfg.Budget.UnknownCostScore
	}
	if cost <= budget {
		return 100
	}
	over := (cost - budget) / budget
	return clamp(100-e.cfg.Budget.DecayRate*100*over, 0, 100)
}

// VarietyScore starts at 100 and subtracts, per past use of the recipe, a
// frequency penalty plus a recency penalty that fades over the window
func (e *Engine) VarietyScore(recipeID string, history []types.HistoryItem) float64 {
	v := e.cfg.Variety
	now := e.now()
	penalty := 0.0
	for _, h := range history {
		if h.RecipeID != recipeID {
			continue
		}
		age := now.Sub(h.UsedDate)
		if age < 0 {
			age = 0
		}
		recency := math.Max(0, 1-float64(age)/float64(v.Window))
		penalty += v.RecencyPenalty*recency + v.FrequencyPenalty
	}
	return clamp(100-penalty, 0, 100)
}

// OverlapScore is the strongest ingredient overlap with any recipe already
// in the plan, scaled to 0-100. An empty plan scores 0.
func OverlapScore(r types.UnifiedRecipe, plan []types.UnifiedRecipe) float64 {
	best := 0.0
	for _, p := range plan {
		if p.ID == r.ID {
			continue
		}
		if j := similarity.IngredientJaccard(r.Ingredients, p.Ingredients); j > best {
			best = j
		}
	}
	return best * 100
}

// PopularityScore scales the source popularity to 0-100
func PopularityScore(r types.UnifiedRecipe) float64 {
	if r.PopularityScore == nil {
		return DefaultPopularity
	}
	return clamp(*r.PopularityScore*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
