// Package planner turns ranked candidates into a meal plan, relaxing
// selection constraints slot by slot when too few candidates qualify.
package planner

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-v2/recommender/internal/scoring"
	"github.com/pageza/alchemorsel-v2/recommender/internal/source"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
)

// CandidateSource produces the deduplicated candidate pool for one request
type CandidateSource interface {
	GenerateCandidates(ctx context.Context, params source.FetchParams) []types.UnifiedRecipe
}

// Relaxation step names, in the order they are applied
const (
	StepOverlap   = "ingredient overlap"
	StepTimeBand  = "cooking time band"
	StepBudget    = "budget limit"
	StepTimeLimit = "cooking time limit"
)

// maxSlotCount bounds a single slot request
const maxSlotCount = 21

// Assembler builds meal plans. It is safe for concurrent use; all per-request
// state lives on the stack of BuildMealPlan.
type Assembler struct {
	candidates CandidateSource
	engine     *scoring.Engine
	cfg        Config
	logger     *zap.Logger
	newRand    func() *rand.Rand
	now        func() time.Time
}

// Option configures an Assembler
type Option func(*Assembler)

// WithRand sets the generator factory used for cuisine and sort injection.
// Returning nil disables injection.
func WithRand(newRand func() *rand.Rand) Option {
	return func(a *Assembler) { a.newRand = newRand }
}

// WithSeed makes injection reproducible by seeding every request with seed
func WithSeed(seed int64) Option {
	return WithRand(func() *rand.Rand { return rand.New(rand.NewSource(seed)) })
}

// WithClock replaces time.Now for plan timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler creates an Assembler
func NewAssembler(candidates CandidateSource, engine *scoring.Engine, cfg Config, logger *zap.Logger, opts ...Option) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assembler{
		candidates: candidates,
		engine:     engine,
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "planner")),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// constraints are the selection rules in force for a slot
type constraints struct {
	overlap   bool
	widen     int
	budget    bool
	timeLimit bool
}

type relaxStep struct {
	name    string
	applies func(a *Assembler, prefs types.UserPreferences) bool
	apply   func(c *constraints)
}

var relaxSteps = []relaxStep{
	{
		name:    StepOverlap,
		applies: func(a *Assembler, _ types.UserPreferences) bool { return a.engine.Weights().Overlap > 0 },
		apply:   func(c *constraints) { c.overlap = false },
	},
	{
		name: StepTimeBand,
		applies: func(a *Assembler, prefs types.UserPreferences) bool {
			_, ok := a.engine.TimeLimit(prefs.Cooking.PreferredDuration, 0)
			return ok
		},
		apply: func(c *constraints) { c.widen++ },
	},
	{
		name: StepBudget,
		applies: func(a *Assembler, prefs types.UserPreferences) bool {
			_, ok := a.engine.PerMealBudget(prefs)
			return a.cfg.EnforceBudget && ok
		},
		apply: func(c *constraints) { c.budget = false },
	},
	{
		name:    StepTimeLimit,
		applies: func(*Assembler, types.UserPreferences) bool { return true },
		apply:   func(c *constraints) { c.timeLimit = false },
	},
}

type userKey struct{}

// WithUserID attaches the requesting user so candidate paging can advance
// per user across requests
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFromContext returns the user attached by WithUserID, if any
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// request is the per-call state of BuildMealPlan
type request struct {
	prefs      types.UserPreferences
	pool       []types.UnifiedRecipe
	breakdowns map[string]scoring.Breakdown
	used       map[string]bool
	plan       []types.UnifiedRecipe
}

// BuildMealPlan selects recipes for every requested slot. Upstream failures
// only shrink the candidate pool; the returned error is an
// *InvalidInputError for bad requests or the context error when ctx ends.
func (a *Assembler) BuildMealPlan(ctx context.Context, prefs types.UserPreferences, mealCounts map[string]int, history []types.HistoryItem) (*types.PlanResult, error) {
	start := a.now()
	counts, err := normalizeCounts(mealCounts)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	var rng *rand.Rand
	if a.newRand != nil {
		rng = a.newRand()
	}
	params := source.ParamsFromPreferences(prefs, min(total*a.cfg.CandidateMultiplier, a.cfg.MaxCandidates), rng)
	params.UserID = UserIDFromContext(ctx)

	candidates := a.candidates.GenerateCandidates(ctx, params)
	pool, rejected := a.gate(candidates, prefs.Dietary)
	if rejected > 0 {
		a.logger.Debug("candidates failed dietary gate", zap.Int("rejected", rejected), zap.Int("remaining", len(pool)))
	}

	breakdowns, err := a.engine.ScoreAll(ctx, pool, prefs, history)
	if err != nil {
		return nil, err
	}

	req := &request{
		prefs:      prefs,
		pool:       pool,
		breakdowns: breakdowns,
		used:       make(map[string]bool),
	}
	result := &types.PlanResult{
		ID:             uuid.New(),
		Meals:          make(map[string][]types.PlannedRecipe, len(counts)),
		CandidateCount: len(candidates),
		GeneratedAt:    a.now(),
	}

	var messages []string
	for _, slot := range SlotOrder(counts) {
		picks, relax := a.fillSlot(req, slot, counts[slot])
		result.Meals[slot] = picks
		if len(relax.Steps) == 0 && relax.Filled == relax.Requested {
			continue
		}
		result.ConstraintsRelaxed = true
		result.Relaxations = append(result.Relaxations, relax)
		messages = append(messages, relaxationMessage(relax))
	}
	result.RelaxationMessage = strings.Join(messages, ". ")

	a.logger.Info("meal plan built",
		zap.Int("slots", len(counts)),
		zap.Int("requested", total),
		zap.Int("candidates", len(candidates)),
		zap.Int("eligible", len(pool)),
		zap.Bool("relaxed", result.ConstraintsRelaxed),
		zap.Duration("duration", a.now().Sub(start)),
	)
	return result, nil
}

func (a *Assembler) gate(candidates []types.UnifiedRecipe, d types.DietaryPreferences) ([]types.UnifiedRecipe, int) {
	pool := make([]types.UnifiedRecipe, 0, len(candidates))
	for _, r := range candidates {
		if ok, reason := scoring.PassesDietaryGate(r, d); !ok {
			a.logger.Debug("dietary gate", zap.String("recipe_id", r.ID), zap.String("reason", reason))
			continue
		}
		pool = append(pool, r)
	}
	return pool, len(candidates) - len(pool)
}

// fillSlot picks up to count recipes for slot, relaxing constraints in order
// whenever no remaining candidate qualifies
func (a *Assembler) fillSlot(req *request, slot string, count int) ([]types.PlannedRecipe, types.SlotRelaxation) {
	c := constraints{overlap: true, budget: a.cfg.EnforceBudget, timeLimit: true}
	relax := types.SlotRelaxation{MealType: slot, Requested: count}
	picks := make([]types.PlannedRecipe, 0, count)
	next := 0

	for len(picks) < count {
		r, score, ok := a.best(req, slot, c)
		if ok {
			picks = append(picks, types.PlannedRecipe{Recipe: r, Score: score})
			req.used[r.ID] = true
			req.plan = append(req.plan, r)
			continue
		}
		applied := false
		for next < len(relaxSteps) && !applied {
			step := relaxSteps[next]
			next++
			if step.applies(a, req.prefs) {
				step.apply(&c)
				relax.Steps = append(relax.Steps, step.name)
				applied = true
			}
		}
		if !applied {
			break
		}
	}
	relax.Filled = len(picks)
	return picks, relax
}

// best returns the highest-scoring unused candidate for slot under c.
// Ties go to the smaller id.
func (a *Assembler) best(req *request, slot string, c constraints) (types.UnifiedRecipe, float64, bool) {
	weights := a.engine.Weights()
	if !c.overlap {
		weights.Overlap = 0
	}
	timeLimit, hasTimeLimit := a.engine.TimeLimit(req.prefs.Cooking.PreferredDuration, c.widen)
	budget, hasBudget := a.engine.PerMealBudget(req.prefs)

	var (
		best      types.UnifiedRecipe
		bestScore float64
		found     bool
	)
	for _, r := range req.pool {
		if req.used[r.ID] || !r.HasTag(slot) {
			continue
		}
		if c.timeLimit && hasTimeLimit && r.ReadyInMinutes > timeLimit {
			continue
		}
		if c.budget && hasBudget {
			if cost, known := scoring.MealCost(r, req.prefs); known && cost > budget {
				continue
			}
		}
		overlap := 0.0
		if weights.Overlap > 0 {
			overlap = scoring.OverlapScore(r, req.plan)
		}
		score := req.breakdowns[r.ID].Aggregate(weights, overlap)
		if c.timeLimit && score < a.cfg.MinScore {
			continue
		}
		if !found || score > bestScore || (score == bestScore && r.ID < best.ID) {
			best, bestScore, found = r, score, true
		}
	}
	return best, bestScore, found
}

func relaxationMessage(r types.SlotRelaxation) string {
	return fmt.Sprintf("%s: relaxed %s; found %d of %d", r.MealType, strings.Join(r.Steps, ", "), r.Filled, r.Requested)
}

func normalizeCounts(mealCounts map[string]int) (map[string]int, error) {
	if len(mealCounts) == 0 {
		return nil, &InvalidInputError{Field: "meal_counts", Reason: "at least one meal type is required"}
	}
	counts := make(map[string]int, len(mealCounts))
	for name, n := range mealCounts {
		slot := strings.ToLower(strings.TrimSpace(name))
		switch {
		case slot == "":
			return nil, &InvalidInputError{Field: "meal_counts", Reason: "meal type name is empty"}
		case n <= 0:
			return nil, &InvalidInputError{Field: "meal_counts." + slot, Reason: fmt.Sprintf("count must be positive, got %d", n)}
		case n > maxSlotCount:
			return nil, &InvalidInputError{Field: "meal_counts." + slot, Reason: fmt.Sprintf("count must be at most %d, got %d", maxSlotCount, n)}
		}
		if _, dup := counts[slot]; dup {
			return nil, &InvalidInputError{Field: "meal_counts." + slot, Reason: "meal type given more than once"}
		}
		counts[slot] = n
	}
	return counts, nil
}

// SlotOrder returns the slots of counts with the primary meal types first,
// in day order, followed by any others alphabetically
func SlotOrder(counts map[string]int) []string {
	order := make([]string, 0, len(counts))
	for _, mt := range types.MealTypes {
		if _, ok := counts[string(mt)]; ok {
			order = append(order, string(mt))
		}
	}
	var rest []string
	for slot := range counts {
		if !types.IsMealType(slot) {
			rest = append(rest, slot)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
