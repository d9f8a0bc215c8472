package scoring

import (
	"testing"

	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"github.com/stretchr/testify/assert"
)

func withIngredients(tags []string, names ...string) types.UnifiedRecipe {
	ings := make([]types.Ingredient, len(names))
	for i, n := range names {
		ings[i] = types.Ingredient{Name: n, OriginalText: n}
	}
	return types.UnifiedRecipe{ID: "tasty-1", Title: "Test", Servings: 1, Tags: tags, Ingredients: ings}
}

func TestPassesDietaryGate(t *testing.T) {
	t.Run("shellfish allergy excludes shrimp", func(t *testing.T) {
		d := types.DietaryPreferences{Vegan: false, Allergies: []string{"shellfish"}}
		shrimp := withIngredients([]string{"dinner"}, "garlic", "Jumbo Shrimp", "butter")
		chicken := withIngredients([]string{"dinner"}, "garlic", "chicken breast", "butter")

		ok, reason := PassesDietaryGate(shrimp, d)
		assert.False(t, ok)
		assert.Contains(t, reason, "Jumbo Shrimp")
		assert.Contains(t, reason, "shellfish")

		ok, _ = PassesDietaryGate(chicken, d)
		assert.True(t, ok)
	})

	t.Run("matches original text", func(t *testing.T) {
		r := types.UnifiedRecipe{Ingredients: []types.Ingredient{{Name: "stock", OriginalText: "2 cups lobster stock"}}}
		ok, _ := PassesDietaryGate(r, types.DietaryPreferences{Allergies: []string{"Shellfish"}})
		assert.False(t, ok)
	})

	t.Run("unknown allergy matches itself", func(t *testing.T) {
		r := withIngredients(nil, "fresh cilantro")
		ok, _ := PassesDietaryGate(r, types.DietaryPreferences{Allergies: []string{"cilantro"}})
		assert.False(t, ok)
	})

	t.Run("restrictions", func(t *testing.T) {
		r := withIngredients(nil, "smoked bacon", "eggs")
		ok, reason := PassesDietaryGate(r, types.DietaryPreferences{Restrictions: []string{"no pork"}})
		assert.False(t, ok)
		assert.Contains(t, reason, "restriction")

		ok, _ = PassesDietaryGate(r, types.DietaryPreferences{Restrictions: []string{"  "}})
		assert.True(t, ok)
	})

	flags := []struct {
		name  string
		prefs types.DietaryPreferences
		pass  []string
		fail  []string
	}{
		{"vegetarian", types.DietaryPreferences{Vegetarian: true}, []string{"vegetarian", "vegan"}, []string{"dinner", "dairy-free"}},
		{"vegan", types.DietaryPreferences{Vegan: true}, []string{"vegan"}, []string{"vegetarian"}},
		{"gluten-free", types.DietaryPreferences{GlutenFree: true}, []string{"gluten-free", "paleo"}, []string{"vegan"}},
		{"dairy-free", types.DietaryPreferences{DairyFree: true}, []string{"dairy-free", "vegan"}, []string{"vegetarian"}},
		{"low-carb", types.DietaryPreferences{LowCarb: true}, []string{"low-carb", "keto"}, []string{"vegan"}},
	}
	for _, tt := range flags {
		t.Run(tt.name, func(t *testing.T) {
			for _, tag := range tt.pass {
				ok, _ := PassesDietaryGate(withIngredients([]string{"dinner", tag}), tt.prefs)
				assert.True(t, ok, "tag %s", tag)
			}
			for _, tag := range tt.fail {
				ok, _ := PassesDietaryGate(withIngredients([]string{"dinner", tag}), tt.prefs)
				assert.False(t, ok, "tag %s", tag)
			}
		})
	}

	t.Run("low-carb by nutrition", func(t *testing.T) {
		r := withIngredients([]string{"dinner"})
		r.Nutrition = &types.Nutrition{Carbs: 12}
		ok, _ := PassesDietaryGate(r, types.DietaryPreferences{LowCarb: true})
		assert.True(t, ok)

		r.Nutrition = &types.Nutrition{Carbs: 45}
		ok, _ = PassesDietaryGate(r, types.DietaryPreferences{LowCarb: true})
		assert.False(t, ok)
	})

	t.Run("nut-free checks ingredients", func(t *testing.T) {
		d := types.DietaryPreferences{NutFree: true}
		ok, _ := PassesDietaryGate(withIngredients(nil, "toasted almonds"), d)
		assert.False(t, ok)
		ok, _ = PassesDietaryGate(withIngredients(nil, "nutmeg", "coconut milk"), d)
		assert.True(t, ok)
	})

	t.Run("family lookalikes are not members", func(t *testing.T) {
		d := types.DietaryPreferences{Restrictions: []string{"milk"}}
		ok, _ := PassesDietaryGate(withIngredients(nil, "butternut squash", "peanut butter", "coconut milk"), d)
		assert.True(t, ok)

		ok, reason := PassesDietaryGate(withIngredients(nil, "butternut squash", "unsalted butter"), d)
		assert.False(t, ok)
		assert.Contains(t, reason, "unsalted butter")

		ok, _ = PassesDietaryGate(withIngredients(nil, "buttermilk"), d)
		assert.False(t, ok)

		ok, _ = PassesDietaryGate(withIngredients(nil, "roasted eggplant"), types.DietaryPreferences{Allergies: []string{"eggs"}})
		assert.True(t, ok)
	})

	t.Run("terms without a family match as substrings", func(t *testing.T) {
		ok, _ := PassesDietaryGate(withIngredients(nil, "peanut butter"), types.DietaryPreferences{Restrictions: []string{"butter"}})
		assert.False(t, ok)
	})

	t.Run("no preferences", func(t *testing.T) {
		ok, reason := PassesDietaryGate(withIngredients(nil, "anything"), types.DietaryPreferences{})
		assert.True(t, ok)
		assert.Empty(t, reason)
	})
}
