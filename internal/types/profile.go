package types

import (
	"time"
)

// DietaryPreferences are hard requirements evaluated by the dietary gate
type DietaryPreferences struct {
	Vegetarian   bool     `json:"vegetarian"`
	Vegan        bool     `json:"vegan"`
	GlutenFree   bool     `json:"gluten_free"`
	DairyFree    bool     `json:"dairy_free"`
	NutFree      bool     `json:"nut_free"`
	LowCarb      bool     `json:"low_carb"`
	Allergies    []string `json:"allergies"`
	Restrictions []string `json:"restrictions"`
}

// FoodPreferences holds favorite and disliked ingredients
type FoodPreferences struct {
	Favorites []string `json:"favorites"`
	Dislikes  []string `json:"dislikes"`
}

// CookingPreferences describes how the user cooks
type CookingPreferences struct {
	Frequency         string   `json:"frequency"`
	PreferredDuration string   `json:"preferred_duration"` // quick, medium, long
	SkillLevel        string   `json:"skill_level"`
	MealTypes         []string `json:"meal_types"`
	HouseholdSize     int      `json:"household_size" validate:"gte=0,lte=50"`
	ServingSize       int      `json:"serving_size" validate:"gte=0,lte=50"`
}

// BudgetPreferences is a spending limit over a period
type BudgetPreferences struct {
	Amount    float64 `json:"amount" validate:"gte=0"`
	Frequency string  `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
}

// UserPreferences groups the four preference sub-models
type UserPreferences struct {
	Dietary DietaryPreferences `json:"dietary"`
	Food    FoodPreferences    `json:"food"`
	Cooking CookingPreferences `json:"cooking"`
	Budget  BudgetPreferences  `json:"budget"`
}

// ServingsNeeded is the number of portions one planned meal must cover
func (p CookingPreferences) ServingsNeeded() int {
	if p.ServingSize > 0 {
		return p.ServingSize
	}
	if p.HouseholdSize > 0 {
		return p.HouseholdSize
	}
	return 1
}

// HistoryItem records a recipe the user has already used
type HistoryItem struct {
	RecipeID string    `json:"recipe_id" validate:"required"`
	UsedDate time.Time `json:"used_date"`
	MealType string    `json:"meal_type"`
}
