package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/alchemorsel-v2/recommender/internal/service"
	"go.uber.org/zap"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Recommender API is running",
		"version": "v1.0.0",
	})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, mealPlans service.IMealPlanService, validate *validator.Validate, logger *zap.Logger, limits ...gin.HandlerFunc) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	NewMealPlanHandler(mealPlans, validate, logger).RegisterRoutes(v1, limits...)
}
