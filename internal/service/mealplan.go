package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/alchemorsel-v2/recommender/internal/planner"
	"github.com/pageza/alchemorsel-v2/recommender/internal/repository"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
)

// DefaultHistoryWindow bounds how far back stored history is loaded
const DefaultHistoryWindow = 30 * 24 * time.Hour

// ErrPreferencesUnavailable means stored preferences could not be read.
// Planning without them could ignore an allergy, so the request fails.
var ErrPreferencesUnavailable = errors.New("stored preferences unavailable")

var (
	_ IMealPlanService = (*MealPlanService)(nil)
	_ IPreferenceStore = (*repository.PreferenceRepository)(nil)
	_ IMealPlanner     = (*planner.Assembler)(nil)
)

// MealPlanService resolves a request's inputs and runs the planner
type MealPlanService struct {
	store         IPreferenceStore
	planner       IMealPlanner
	historyWindow time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewMealPlanService creates a new MealPlanService instance. store may be nil
// when only inline preferences are served.
func NewMealPlanService(store IPreferenceStore, planner IMealPlanner, historyWindow time.Duration, logger *zap.Logger) *MealPlanService {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealPlanService{
		store:         store,
		planner:       planner,
		historyWindow: historyWindow,
		now:           time.Now,
		logger:        logger.With(zap.String("component", "meal_plan_service")),
	}
}

// GenerateMealPlan builds a plan. Inline preferences and history win over
// stored ones; a request with neither a user nor preferences plans without
// constraints.
func (s *MealPlanService) GenerateMealPlan(ctx context.Context, req *types.MealPlanRequest) (*types.PlanResult, error) {
	if req == nil {
		return nil, &planner.InvalidInputError{Reason: "request is empty"}
	}

	var prefs types.UserPreferences
	switch {
	case req.Preferences != nil:
		prefs = *req.Preferences
	case req.UserID != nil && s.store != nil:
		loaded, err := s.store.LoadPreferences(ctx, *req.UserID)
		if err != nil {
			s.logger.Error("failed to load preferences", zap.String("user_id", req.UserID.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrPreferencesUnavailable, err)
		}
		prefs = loaded
	}

	history := req.History
	if history == nil && req.UserID != nil && s.store != nil {
		loaded, err := s.store.LoadHistory(ctx, *req.UserID, s.now().Add(-s.historyWindow))
		if err != nil {
			// history only feeds the variety score
			s.logger.Warn("failed to load history, planning without it", zap.String("user_id", req.UserID.String()), zap.Error(err))
		} else {
			history = loaded
		}
	}

	if req.UserID != nil {
		ctx = planner.WithUserID(ctx, req.UserID.String())
	}
	return s.planner.BuildMealPlan(ctx, prefs, req.MealCounts, history)
}
