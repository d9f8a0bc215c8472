package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

// IMealPlanService defines the interface for meal plan operations
type IMealPlanService interface {
	GenerateMealPlan(ctx context.Context, req *types.MealPlanRequest) (*types.PlanResult, error)
}

// IPreferenceStore loads stored preferences and history for a user
type IPreferenceStore interface {
	LoadPreferences(ctx context.Context, userID uuid.UUID) (types.UserPreferences, error)
	LoadHistory(ctx context.Context, userID uuid.UUID, since time.Time) ([]types.HistoryItem, error)
}

// IMealPlanner builds a plan from resolved inputs
type IMealPlanner interface {
	BuildMealPlan(ctx context.Context, prefs types.UserPreferences, mealCounts map[string]int, history []types.HistoryItem) (*types.PlanResult, error)
}
