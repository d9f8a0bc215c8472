// Package repository reads the preference and history collaborators the
// planner consumes. It never writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-v2/recommender/internal/models"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"gorm.io/gorm"
)

// PreferenceRepository loads stored preferences by user
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new PreferenceRepository instance
func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// LoadPreferences assembles the four preference sub-models for a user.
// Missing rows yield zero values, so an unknown user has no constraints.
func (r *PreferenceRepository) LoadPreferences(ctx context.Context, userID uuid.UUID) (types.UserPreferences, error) {
	var prefs types.UserPreferences
	db := r.db.WithContext(ctx)

	var dietary []models.DietaryPreference
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&dietary).Error; err != nil {
		return prefs, fmt.Errorf("failed to load dietary preferences: %w", err)
	}
	for _, d := range dietary {
		applyDietary(&prefs.Dietary, d)
	}

	var allergens []models.Allergen
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&allergens).Error; err != nil {
		return prefs, fmt.Errorf("failed to load allergens: %w", err)
	}
	for _, a := range allergens {
		if name := strings.TrimSpace(a.AllergenName); name != "" {
			prefs.Dietary.Allergies = append(prefs.Dietary.Allergies, name)
		}
	}

	var food []models.FoodPreference
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&food).Error; err != nil {
		return prefs, fmt.Errorf("failed to load food preferences: %w", err)
	}
	for _, f := range food {
		if f.Liked {
			prefs.Food.Favorites = append(prefs.Food.Favorites, f.Ingredient)
		} else {
			prefs.Food.Dislikes = append(prefs.Food.Dislikes, f.Ingredient)
		}
	}

	var cooking models.CookingPreference
	if err := db.Where("user_id = ?", userID).First(&cooking).Error; err == nil {
		prefs.Cooking = types.CookingPreferences{
			Frequency:         cooking.Frequency,
			PreferredDuration: cooking.PreferredDuration,
			SkillLevel:        cooking.SkillLevel,
			MealTypes:         []string(cooking.MealTypes),
			HouseholdSize:     cooking.HouseholdSize,
			ServingSize:       cooking.ServingSize,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return prefs, fmt.Errorf("failed to load cooking preferences: %w", err)
	}

	var budget models.BudgetPreference
	if err := db.Where("user_id = ?", userID).First(&budget).Error; err == nil {
		prefs.Budget = types.BudgetPreferences{Amount: budget.Amount, Frequency: budget.Frequency}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return prefs, fmt.Errorf("failed to load budget preference: %w", err)
	}

	return prefs, nil
}

func applyDietary(d *types.DietaryPreferences, p models.DietaryPreference) {
	switch p.PreferenceType {
	case models.DietVegetarian:
		d.Vegetarian = true
	case models.DietVegan:
		d.Vegan = true
	case models.DietGlutenFree:
		d.GlutenFree = true
	case models.DietDairyFree:
		d.DairyFree = true
	case models.DietNutFree:
		d.NutFree = true
	case models.DietLowCarb:
		d.LowCarb = true
	default:
		// custom and unknown types are free-text restrictions
		if name := strings.TrimSpace(p.CustomName); name != "" {
			d.Restrictions = append(d.Restrictions, name)
		}
	}
}

// LoadHistory returns the user's history since the given time, newest first
func (r *PreferenceRepository) LoadHistory(ctx context.Context, userID uuid.UUID, since time.Time) ([]types.HistoryItem, error) {
	var rows []models.RecipeHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND used_date >= ?", userID, since).
		Order("used_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe history: %w", err)
	}
	items := make([]types.HistoryItem, len(rows))
	for i, h := range rows {
		items[i] = types.HistoryItem{RecipeID: h.RecipeID, UsedDate: h.UsedDate, MealType: h.MealType}
	}
	return items, nil
}
