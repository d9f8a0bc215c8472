package scoring

import (
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

// tagImplies expands a tag into the diet tags it satisfies
var tagImplies = map[string][]string{
	"vegan":     {"vegetarian", "dairy-free"},
	"keto":      {"low-carb"},
	"ketogenic": {"low-carb"},
	"paleo":     {"gluten-free", "dairy-free"},
	"primal":    {"gluten-free"},
	"whole30":   {"gluten-free", "dairy-free"},
}

// allergenFamilies maps an allergy or restriction term to the ingredient
// names that contain it. Terms without an entry match themselves.
var allergenFamilies = map[string][]string{
	"shellfish": {"shellfish", "shrimp", "prawn", "crab", "lobster", "crayfish", "langoustine", "clam", "mussel", "oyster", "scallop"},
	"seafood":   {"shrimp", "prawn", "crab", "lobster", "clam", "mussel", "oyster", "scallop", "fish", "salmon", "tuna", "cod", "anchov", "sardine", "squid", "octopus"},
	"fish":      {"fish", "salmon", "tuna", "cod", "halibut", "tilapia", "trout", "anchov", "sardine", "mackerel", "haddock"},
	"nuts":      {"almond", "walnut", "pecan", "cashew", "pistachio", "hazelnut", "macadamia", "brazil nut", "pine nut", "peanut"},
	"tree nut":  {"almond", "walnut", "pecan", "cashew", "pistachio", "hazelnut", "macadamia", "brazil nut", "pine nut"},
	"peanut":    {"peanut"},
	"dairy":     {"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "whey", "casein", "ghee", "parmesan", "mozzarella"},
	"lactose":   {"milk", "cheese", "cream", "yogurt", "yoghurt", "whey"},
	"gluten":    {"wheat", "flour", "bread", "pasta", "spaghetti", "noodle", "barley", "rye", "couscous", "semolina", "breadcrumb", "tortilla"},
	"wheat":     {"wheat", "flour", "bread", "pasta", "spaghetti", "couscous", "semolina"},
	"egg":       {"egg", "mayonnaise", "meringue"},
	"soy":       {"soy", "tofu", "edamame", "tempeh", "miso"},
	"sesame":    {"sesame", "tahini"},
	"pork":      {"pork", "bacon", "ham", "prosciutto", "pancetta", "chorizo", "lard"},
	"beef":      {"beef", "steak", "veal"},
}

// familyLookalikes lists phrases that contain a family member's name but are
// not members. They are blanked before a family is matched; a literal term
// never uses them.
var familyLookalikes = map[string][]string{
	"dairy": {
		"peanut butter", "almond butter", "cashew butter", "nut butter", "apple butter", "cocoa butter",
		"butternut", "butter bean", "coconut milk", "almond milk", "oat milk", "soy milk", "rice milk",
		"cashew milk", "coconut cream", "cream of tartar",
	},
	"lactose": {"coconut milk", "almond milk", "oat milk", "soy milk", "rice milk", "cashew milk", "coconut cream", "cream of tartar"},
	"egg":     {"eggplant"},
	"pork":    {"graham", "champagne"},
	"gluten":  {"buckwheat", "rice noodle", "rice pasta", "corn tortilla"},
	"wheat":   {"buckwheat"},
}

var termAliases = map[string]string{
	"nut":        "nuts",
	"tree nuts":  "tree nut",
	"peanuts":    "peanut",
	"eggs":       "egg",
	"shell fish": "shellfish",
	"milk":       "dairy",
}

// lowCarbLimit is the carb grams per serving that counts as low-carb
// without an explicit tag
const lowCarbLimit = 20

// PassesDietaryGate reports whether the recipe satisfies every enabled
// dietary flag and avoids every listed allergy and restriction. When it
// fails, reason says why.
func PassesDietaryGate(r types.UnifiedRecipe, d types.DietaryPreferences) (bool, string) {
	tags := expandTags(r.Tags)

	switch {
	case d.Vegan && !tags["vegan"]:
		return false, "not tagged vegan"
	case d.Vegetarian && !tags["vegetarian"]:
		return false, "not tagged vegetarian"
	case d.GlutenFree && !tags["gluten-free"]:
		return false, "not tagged gluten-free"
	case d.DairyFree && !tags["dairy-free"]:
		return false, "not tagged dairy-free"
	case d.LowCarb && !tags["low-carb"] && !(r.Nutrition != nil && r.Nutrition.Carbs <= lowCarbLimit):
		return false, "not low-carb"
	}

	if d.NutFree {
		if hit, ok := findIngredient(r, "nuts"); ok {
			return false, fmt.Sprintf("contains %s (nut-free)", hit)
		}
	}
	for _, term := range d.Allergies {
		if hit, ok := findIngredient(r, term); ok {
			return false, fmt.Sprintf("contains %s (allergy: %s)", hit, strings.TrimSpace(term))
		}
	}
	for _, term := range d.Restrictions {
		if hit, ok := findIngredient(r, term); ok {
			return false, fmt.Sprintf("contains %s (restriction: %s)", hit, strings.TrimSpace(term))
		}
	}
	return true, ""
}

func expandTags(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags)*2)
	for _, t := range tags {
		t = strings.ToLower(t)
		set[t] = true
		for _, implied := range tagImplies[t] {
			set[implied] = true
		}
	}
	return set
}

// findIngredient returns the first ingredient matching term
func findIngredient(r types.UnifiedRecipe, term string) (string, bool) {
	needles, lookalikes := expandTerm(term)
	if len(needles) == 0 {
		return "", false
	}
	for _, ing := range r.Ingredients {
		name := blank(strings.ToLower(ing.Name), lookalikes)
		text := blank(strings.ToLower(ing.OriginalText), lookalikes)
		for _, n := range needles {
			if strings.Contains(name, n) || strings.Contains(text, n) {
				return ing.Name, true
			}
		}
	}
	return "", false
}

func blank(s string, phrases []string) string {
	for _, p := range phrases {
		s = strings.ReplaceAll(s, p, " ")
	}
	return s
}

// expandTerm returns the substrings that identify term, and for a known
// family the lookalike phrases to ignore
func expandTerm(term string) ([]string, []string) {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, prefix := range []string{"no ", "without ", "avoid "} {
		term = strings.TrimPrefix(term, prefix)
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if alias, ok := termAliases[term]; ok {
		term = alias
	}
	if family, ok := allergenFamilies[term]; ok {
		return family, familyLookalikes[term]
	}
	return []string{term}, nil
}
