package models

// All returns every model managed by the migrator
func All() []interface{} {
	return []interface{}{
		&CatalogRecipe{},
		&DietaryPreference{},
		&Allergen{},
		&FoodPreference{},
		&CookingPreference{},
		&BudgetPreference{},
		&RecipeHistory{},
	}
}
