package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/alchemorsel-v2/recommender/internal/planner"
	"github.com/pageza/alchemorsel-v2/recommender/internal/service"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
)

// MealPlanHandler serves meal plan generation
type MealPlanHandler struct {
	service  service.IMealPlanService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewMealPlanHandler creates a new MealPlanHandler instance
func NewMealPlanHandler(mealPlans service.IMealPlanService, validate *validator.Validate, logger *zap.Logger) *MealPlanHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &MealPlanHandler{
		service:  mealPlans,
		validate: validate,
		logger:   logger.With(zap.String("component", "meal_plan_handler")),
	}
}

// RegisterRoutes mounts the handler under router. limits run before the
// handler, typically a rate limiter.
func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup, limits ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, limits...), h.CreateMealPlan)
	router.POST("/meal-plans", handlers...)
}

// CreateMealPlan handles POST /api/v1/meal-plans
func (h *MealPlanHandler) CreateMealPlan(c *gin.Context) {
	var req types.MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: []string{err.Error()}})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid meal plan request", Details: validationDetails(err)})
		return
	}
	plan, err := h.service.GenerateMealPlan(c.Request.Context(), &req)
	if err != nil {
		var invalid *planner.InvalidInputError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalid.Error()})
		case errors.Is(err, service.ErrPreferencesUnavailable):
			h.logger.Warn("meal plan rejected", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "preferences are temporarily unavailable"})
		default:
			h.logger.Error("failed to generate meal plan", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate meal plan"})
		}
		return
	}

	c.JSON(http.StatusOK, types.MealPlanResponse{Plan: plan})
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, len(verrs))
	for i, fe := range verrs {
		details[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return details
}
