package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/alchemorsel-v2/recommender/internal/models"
	"github.com/pageza/alchemorsel-v2/recommender/internal/testhelpers"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPreferences(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	repo := NewPreferenceRepository(db)
	userID := uuid.New()
	other := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&[]models.DietaryPreference{
		{UserID: userID, PreferenceType: models.DietVegan, CreatedAt: base},
		{UserID: userID, PreferenceType: models.DietNutFree, CreatedAt: base.Add(time.Minute)},
		{UserID: userID, PreferenceType: models.DietCustom, CustomName: "no pork", CreatedAt: base.Add(2 * time.Minute)},
		{UserID: other, PreferenceType: models.DietGlutenFree, CreatedAt: base},
	}).Error)
	require.NoError(t, db.Create(&[]models.Allergen{
		{UserID: userID, AllergenName: "shellfish", SeverityLevel: 3},
		{UserID: userID, AllergenName: " ", SeverityLevel: 1},
	}).Error)
	require.NoError(t, db.Create(&[]models.FoodPreference{
		{UserID: userID, Ingredient: "basil", Liked: true, CreatedAt: base},
		{UserID: userID, Ingredient: "cilantro", Liked: false, CreatedAt: base.Add(time.Minute)},
	}).Error)
	require.NoError(t, db.Create(&models.CookingPreference{
		UserID: userID, PreferredDuration: "quick", SkillLevel: "beginner",
		MealTypes: models.JSONBStringArray{"lunch", "dinner"}, HouseholdSize: 4,
	}).Error)
	require.NoError(t, db.Create(&models.BudgetPreference{UserID: userID, Amount: 120, Frequency: "weekly"}).Error)

	prefs, err := repo.LoadPreferences(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, types.DietaryPreferences{
		Vegan:        true,
		NutFree:      true,
		Allergies:    []string{"shellfish"},
		Restrictions: []string{"no pork"},
	}, prefs.Dietary)
	assert.Equal(t, []string{"basil"}, prefs.Food.Favorites)
	assert.Equal(t, []string{"cilantro"}, prefs.Food.Dislikes)
	assert.Equal(t, "quick", prefs.Cooking.PreferredDuration)
	assert.Equal(t, []string{"lunch", "dinner"}, prefs.Cooking.MealTypes)
	assert.Equal(t, 4, prefs.Cooking.ServingsNeeded())
	assert.Equal(t, types.BudgetPreferences{Amount: 120, Frequency: "weekly"}, prefs.Budget)

	t.Run("unknown user", func(t *testing.T) {
		prefs, err := repo.LoadPreferences(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, types.UserPreferences{}, prefs)
	})
}

func TestLoadPreferencesMissingTables(t *testing.T) {
	repo := NewPreferenceRepository(testhelpers.NewSQLiteDB(t))
	_, err := repo.LoadPreferences(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestLoadHistory(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	repo := NewPreferenceRepository(db)
	userID := uuid.New()
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&[]models.RecipeHistory{
		{UserID: userID, RecipeID: "tasty-1", MealType: "dinner", UsedDate: now.Add(-48 * time.Hour)},
		{UserID: userID, RecipeID: "spn-7", MealType: "lunch", UsedDate: now.Add(-2 * time.Hour)},
		{UserID: userID, RecipeID: "tasty-9", MealType: "dinner", UsedDate: now.Add(-40 * 24 * time.Hour)},
		{UserID: uuid.New(), RecipeID: "tasty-5", UsedDate: now},
	}).Error)

	items, err := repo.LoadHistory(context.Background(), userID, now.Add(-14*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "spn-7", items[0].RecipeID)
	assert.Equal(t, "lunch", items[0].MealType)
	assert.Equal(t, "tasty-1", items[1].RecipeID)
	assert.True(t, items[1].UsedDate.Equal(now.Add(-48*time.Hour)))

	empty, err := repo.LoadHistory(context.Background(), uuid.New(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
