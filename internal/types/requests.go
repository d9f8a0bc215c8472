package types

import (
	"github.com/google/uuid"
)

// MealPlanRequest is the request body for building a meal plan.
// Preferences and History override the stored ones when set.
type MealPlanRequest struct {
	UserID      *uuid.UUID       `json:"user_id"`
	MealCounts  map[string]int   `json:"meal_counts" validate:"required,min=1,max=10,dive,keys,required,max=30,endkeys,gt=0,lte=21"`
	Preferences *UserPreferences `json:"preferences"`
	History     []HistoryItem    `json:"history" validate:"omitempty,dive"`
}

// MealPlanResponse wraps a plan for the API
type MealPlanResponse struct {
	Plan *PlanResult `json:"plan"`
}
