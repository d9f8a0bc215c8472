package planner

import "fmt"

// InvalidInputError is returned when a meal plan request cannot be served
// as asked. It is the only error BuildMealPlan returns for bad requests.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid meal plan request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid meal plan request: %s: %s", e.Field, e.Reason)
}
