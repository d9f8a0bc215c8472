package planner

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-v2/recommender/internal/scoring"
	"github.com/pageza/alchemorsel-v2/recommender/internal/source"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCandidates struct {
	mu      sync.Mutex
	recipes []types.UnifiedRecipe
	calls   int
	params  source.FetchParams
}

func (f *fakeCandidates) GenerateCandidates(_ context.Context, params source.FetchParams) []types.UnifiedRecipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.params = params
	return f.recipes
}

func recipe(id string, minutes int, tags []string, ingredients ...string) types.UnifiedRecipe {
	ings := make([]types.Ingredient, len(ingredients))
	for i, n := range ingredients {
		ings[i] = types.Ingredient{Name: n, OriginalText: n}
	}
	return types.UnifiedRecipe{
		ID:             id,
		Source:         types.SourceFirstParty,
		Title:          "Recipe " + id,
		ReadyInMinutes: minutes,
		Servings:       2,
		Tags:           tags,
		Ingredients:    ings,
	}
}

func ptr(v float64) *float64 { return &v }

func newAssembler(t *testing.T, recipes []types.UnifiedRecipe, mutate func(*Config)) (*Assembler, *fakeCandidates) {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	fake := &fakeCandidates{recipes: recipes}
	a, err := NewAssembler(fake, engine, cfg, zap.NewNop(),
		WithRand(func() *rand.Rand { return nil }),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return a, fake
}

func planIDs(p []types.PlannedRecipe) []string {
	ids := make([]string, len(p))
	for i, r := range p {
		ids[i] = r.Recipe.ID
	}
	return ids
}

func TestBuildMealPlan_PartialAfterFullRelaxation(t *testing.T) {
	dinner := recipe("tasty-1", 45, []string{"dinner"}, "chicken", "rice", "peas")
	dinner.CostPerServing = ptr(5)
	shrimp := recipe("tasty-2", 20, []string{"dinner"}, "shrimp", "garlic", "butter")
	lunch := recipe("tasty-3", 10, []string{"lunch"}, "bread", "ham")

	a, fake := newAssembler(t, []types.UnifiedRecipe{shrimp, dinner, lunch}, nil)
	prefs := types.UserPreferences{
		Dietary: types.DietaryPreferences{Allergies: []string{"shellfish"}},
		Cooking: types.CookingPreferences{PreferredDuration: "quick", ServingSize: 1},
		Budget:  types.BudgetPreferences{Amount: 70, Frequency: "weekly"},
	}

	plan, err := a.BuildMealPlan(WithUserID(context.Background(), "user-1"), prefs, map[string]int{"dinner": 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"tasty-1"}, planIDs(plan.Meals["dinner"]))
	assert.True(t, plan.ConstraintsRelaxed)
	assert.Equal(t, "dinner: relaxed ingredient overlap, cooking time band, budget limit, cooking time limit; found 1 of 3", plan.RelaxationMessage)
	require.Len(t, plan.Relaxations, 1)
	assert.Equal(t, 1, plan.Relaxations[0].Filled)
	assert.Equal(t, 3, plan.Relaxations[0].Requested)
	assert.Equal(t, 3, plan.CandidateCount)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 9, fake.params.Number)
	assert.Equal(t, "user-1", fake.params.UserID)
	assert.Empty(t, fake.params.Cuisine)
}

func TestBuildMealPlan_GateIsNeverRelaxed(t *testing.T) {
	shrimp := recipe("tasty-1", 15, []string{"dinner"}, "jumbo shrimp", "lime")
	a, _ := newAssembler(t, []types.UnifiedRecipe{shrimp}, nil)
	prefs := types.UserPreferences{Dietary: types.DietaryPreferences{Allergies: []string{"shellfish"}}}

	plan, err := a.BuildMealPlan(context.Background(), prefs, map[string]int{"dinner": 1}, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Meals["dinner"])
	assert.True(t, plan.ConstraintsRelaxed)
}

func TestNewAssemblerNilLogger(t *testing.T) {
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	fake := &fakeCandidates{recipes: []types.UnifiedRecipe{recipe("tasty-1", 15, []string{"dinner"}, "rice")}}

	a, err := NewAssembler(fake, engine, DefaultConfig(), nil, WithRand(func() *rand.Rand { return nil }))
	require.NoError(t, err)

	plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"dinner": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasty-1"}, planIDs(plan.Meals["dinner"]))
	assert.True(t, plan.ConstraintsRelaxed)
}

func TestBuildMealPlan_StrictFill(t *testing.T) {
	recipes := []types.UnifiedRecipe{
		recipe("tasty-1", 15, []string{"breakfast"}, "oats", "milk"),
		recipe("tasty-2", 20, []string{"dinner"}, "salmon", "dill"),
		recipe("tasty-3", 25, []string{"dinner"}, "tofu", "soy sauce"),
	}
	a, _ := newAssembler(t, recipes, nil)
	prefs := types.UserPreferences{Cooking: types.CookingPreferences{PreferredDuration: "quick"}}

	plan, err := a.BuildMealPlan(context.Background(), prefs, map[string]int{"breakfast": 1, "dinner": 2}, nil)
	require.NoError(t, err)

	assert.False(t, plan.ConstraintsRelaxed)
	assert.Empty(t, plan.RelaxationMessage)
	assert.Empty(t, plan.Relaxations)
	assert.Equal(t, []string{"tasty-1"}, planIDs(plan.Meals["breakfast"]))
	assert.ElementsMatch(t, []string{"tasty-2", "tasty-3"}, planIDs(plan.Meals["dinner"]))
	assert.NotEqual(t, uuid.Nil, plan.ID)
}

func TestBuildMealPlan_RelaxationOrder(t *testing.T) {
	prefs := types.UserPreferences{
		Cooking: types.CookingPreferences{PreferredDuration: "quick", ServingSize: 1},
		Budget:  types.BudgetPreferences{Amount: 21, Frequency: "weekly"},
	}

	t.Run("time band widened before budget", func(t *testing.T) {
		slow := recipe("tasty-1", 50, []string{"dinner"}, "beef", "carrot")
		a, _ := newAssembler(t, []types.UnifiedRecipe{slow}, nil)

		plan, err := a.BuildMealPlan(context.Background(), prefs, map[string]int{"dinner": 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"tasty-1"}, planIDs(plan.Meals["dinner"]))
		assert.Equal(t, []string{StepOverlap, StepTimeBand}, plan.Relaxations[0].Steps)
		assert.Equal(t, "dinner: relaxed ingredient overlap, cooking time band; found 1 of 1", plan.RelaxationMessage)
	})

	t.Run("budget dropped when enforced", func(t *testing.T) {
		pricey := recipe("tasty-1", 20, []string{"dinner"}, "lobster", "butter")
		pricey.CostPerServing = ptr(1.5)
		a, _ := newAssembler(t, []types.UnifiedRecipe{pricey}, nil)

		plan, err := a.BuildMealPlan(context.Background(), prefs, map[string]int{"dinner": 1}, nil)
		require.NoError(t, err)
		assert.Len(t, plan.Meals["dinner"], 1)
		assert.Equal(t, []string{StepOverlap, StepTimeBand, StepBudget}, plan.Relaxations[0].Steps)
	})

	t.Run("soft budget is not a selection constraint", func(t *testing.T) {
		pricey := recipe("tasty-1", 20, []string{"dinner"}, "lobster", "butter")
		pricey.CostPerServing = ptr(1.5)
		a, _ := newAssembler(t, []types.UnifiedRecipe{pricey}, func(c *Config) { c.EnforceBudget = false })

		plan, err := a.BuildMealPlan(context.Background(), prefs, map[string]int{"dinner": 1}, nil)
		require.NoError(t, err)
		assert.Len(t, plan.Meals["dinner"], 1)
		assert.False(t, plan.ConstraintsRelaxed)
	})

	t.Run("min score dropped last", func(t *testing.T) {
		r := recipe("tasty-1", 15, []string{"dinner"}, "pasta")
		a, _ := newAssembler(t, []types.UnifiedRecipe{r}, func(c *Config) { c.MinScore = 100 })

		plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"dinner": 1}, nil)
		require.NoError(t, err)
		assert.Len(t, plan.Meals["dinner"], 1)
		assert.Equal(t, []string{StepOverlap, StepTimeLimit}, plan.Relaxations[0].Steps)
	})
}

func TestBuildMealPlan_RecipeUsedOnce(t *testing.T) {
	both := recipe("tasty-1", 15, []string{"lunch", "dinner"}, "lentils")
	a, _ := newAssembler(t, []types.UnifiedRecipe{both}, nil)

	plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"dinner": 1, "lunch": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasty-1"}, planIDs(plan.Meals["lunch"]))
	assert.Empty(t, plan.Meals["dinner"])
}

func TestBuildMealPlan_Ties(t *testing.T) {
	a1 := recipe("tasty-2", 15, []string{"dinner"}, "rice")
	a2 := recipe("tasty-10", 15, []string{"dinner"}, "rice")

	for _, order := range [][]types.UnifiedRecipe{{a1, a2}, {a2, a1}} {
		a, _ := newAssembler(t, order, nil)
		plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"dinner": 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"tasty-10"}, planIDs(plan.Meals["dinner"]))
	}
}

func TestBuildMealPlan_OverlapRecomputed(t *testing.T) {
	first := recipe("tasty-2", 15, []string{"dinner"}, "onion", "garlic", "tomato")
	first.PopularityScore = ptr(1)
	sharing := recipe("tasty-3", 15, []string{"dinner"}, "onion", "garlic", "tomato")
	other := recipe("tasty-1", 15, []string{"dinner"}, "flour", "sugar")

	a, _ := newAssembler(t, []types.UnifiedRecipe{other, sharing, first}, nil)
	plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"dinner": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasty-2", "tasty-3"}, planIDs(plan.Meals["dinner"]))
	assert.Greater(t, plan.Meals["dinner"][0].Score, 0.0)
}

func TestBuildMealPlan_NoCandidates(t *testing.T) {
	a, _ := newAssembler(t, nil, nil)

	plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, map[string]int{"breakfast": 2, "snacks": 1}, nil)
	require.NoError(t, err)
	assert.True(t, plan.ConstraintsRelaxed)
	assert.NotNil(t, plan.Meals["breakfast"])
	assert.Empty(t, plan.Meals["breakfast"])
	assert.Empty(t, plan.Meals["snacks"])
	assert.Equal(t, 0, plan.CandidateCount)
	assert.Contains(t, plan.RelaxationMessage, "breakfast: relaxed")
	assert.Contains(t, plan.RelaxationMessage, "found 0 of 2")
}

func TestBuildMealPlan_InvalidInput(t *testing.T) {
	tests := map[string]map[string]int{
		"nil":       nil,
		"empty":     {},
		"zero":      {"dinner": 0},
		"negative":  {"dinner": -1},
		"blank":     {" ": 1},
		"too many":  {"dinner": 22},
		"duplicate": {"Dinner": 1, "dinner": 2},
	}
	for name, counts := range tests {
		t.Run(name, func(t *testing.T) {
			a, fake := newAssembler(t, nil, nil)
			plan, err := a.BuildMealPlan(context.Background(), types.UserPreferences{}, counts, nil)
			assert.Nil(t, plan)
			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Contains(t, err.Error(), "meal_counts")
			assert.Zero(t, fake.calls)
		})
	}
}

func TestBuildMealPlan_Cancelled(t *testing.T) {
	a, _ := newAssembler(t, []types.UnifiedRecipe{recipe("tasty-1", 10, []string{"dinner"}, "egg")}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.BuildMealPlan(ctx, types.UserPreferences{}, map[string]int{"dinner": 1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSlotOrder(t *testing.T) {
	counts := map[string]int{"snacks": 1, "brunch": 1, "breakfast": 1, "dessert": 1, "dinner": 1}
	assert.Equal(t, []string{"breakfast", "dinner", "snacks", "brunch", "dessert"}, SlotOrder(counts))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.CandidateMultiplier = 0
	cfg.MinScore = 120
	assert.Error(t, cfg.Validate())

	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	_, err = NewAssembler(&fakeCandidates{}, engine, cfg, zap.NewNop())
	assert.Error(t, err)
}
