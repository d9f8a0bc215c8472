package types

import (
	"time"

	"github.com/google/uuid"
)

// PlannedRecipe is a selected recipe with the score it was selected on
type PlannedRecipe struct {
	Recipe UnifiedRecipe `json:"recipe"`
	Score  float64       `json:"score"`
}

// SlotRelaxation records which constraints were loosened for one slot
type SlotRelaxation struct {
	MealType  string   `json:"meal_type"`
	Steps     []string `json:"steps"`
	Requested int      `json:"requested"`
	Filled    int      `json:"filled"`
}

// PlanResult is the outcome of one meal plan request
type PlanResult struct {
	ID                 uuid.UUID                  `json:"id"`
	Meals              map[string][]PlannedRecipe `json:"meals"`
	ConstraintsRelaxed bool                       `json:"constraints_relaxed"`
	RelaxationMessage  string                     `json:"relaxation_message,omitempty"`
	Relaxations        []SlotRelaxation           `json:"relaxations,omitempty"`
	CandidateCount     int                        `json:"candidate_count"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// Recipes flattens the plan in slot order as given by order
func (p *PlanResult) Recipes(order []string) []UnifiedRecipe {
	var out []UnifiedRecipe
	for _, slot := range order {
		for _, pr := range p.Meals[slot] {
			out = append(out, pr.Recipe)
		}
	}
	return out
}
