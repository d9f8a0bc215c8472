package source

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/pageza/alchemorsel-v2/recommender/internal/cache"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

// FetchParams is the search request shared by both sources
type FetchParams struct {
	UserID             string
	Diet               []string
	Intolerances       []string
	Cuisine            string
	IncludeIngredients []string
	MaxReadyTime       int
	Sort               string
	Number             int
	Offset             int
}

// Cuisines used for variety injection
var Cuisines = []string{
	"american", "chinese", "french", "greek", "indian", "italian",
	"japanese", "korean", "mediterranean", "mexican", "thai", "vietnamese",
}

// SortOrders used for variety injection
var SortOrders = []string{"popularity", "healthiness", "time", "random"}

// CuisineInjectionRate is the chance a request is pinned to one cuisine
const CuisineInjectionRate = 0.3

// maxIncludedFavorites bounds includeIngredients, which the upstream treats as a hard filter
const maxIncludedFavorites = 2

var intoleranceAliases = map[string]string{
	"nuts":      "tree nut",
	"tree nuts": "tree nut",
	"peanuts":   "peanut",
	"eggs":      "egg",
	"milk":      "dairy",
	"lactose":   "dairy",
	"fish":      "seafood",
	"sulfites":  "sulfite",
}

// ParamsFromPreferences builds the fetch request for a plan of total meals.
// rng drives cuisine and sort injection; a nil rng disables both so the
// request is fully determined by prefs.
func ParamsFromPreferences(prefs types.UserPreferences, total int, rng *rand.Rand) FetchParams {
	d := prefs.Dietary
	p := FetchParams{Number: total}

	switch {
	case d.Vegan:
		p.Diet = append(p.Diet, "vegan")
	case d.Vegetarian:
		p.Diet = append(p.Diet, "vegetarian")
	}
	if d.GlutenFree {
		p.Diet = append(p.Diet, "gluten free")
		p.Intolerances = append(p.Intolerances, "gluten")
	}
	if d.LowCarb {
		p.Diet = append(p.Diet, "ketogenic")
	}
	if d.DairyFree {
		p.Intolerances = append(p.Intolerances, "dairy")
	}
	if d.NutFree {
		p.Intolerances = append(p.Intolerances, "peanut", "tree nut")
	}
	for _, a := range d.Allergies {
		a = strings.ToLower(strings.TrimSpace(a))
		if alias, ok := intoleranceAliases[a]; ok {
			a = alias
		}
		if a != "" {
			p.Intolerances = append(p.Intolerances, a)
		}
	}

	for _, fav := range prefs.Food.Favorites {
		if len(p.IncludeIngredients) == maxIncludedFavorites {
			break
		}
		if fav = strings.TrimSpace(fav); fav != "" {
			p.IncludeIngredients = append(p.IncludeIngredients, fav)
		}
	}

	switch strings.ToLower(prefs.Cooking.PreferredDuration) {
	case "quick":
		p.MaxReadyTime = 30
	case "medium":
		p.MaxReadyTime = 60
	}

	if rng != nil {
		if rng.Float64() < CuisineInjectionRate {
			p.Cuisine = Cuisines[rng.Intn(len(Cuisines))]
		}
		p.Sort = SortOrders[rng.Intn(len(SortOrders))]
	}
	return p
}

// CacheParams renders the params in canonical form for cache key derivation.
// Offset and UserID are excluded; they do not change third-party results.
func (p FetchParams) CacheParams() map[string]string {
	return map[string]string{
		"diet":               cache.CanonicalList(p.Diet),
		"intolerances":       cache.CanonicalList(p.Intolerances),
		"cuisine":            strings.ToLower(p.Cuisine),
		"includeIngredients": cache.CanonicalList(p.IncludeIngredients),
		"maxReadyTime":       strconv.Itoa(p.MaxReadyTime),
		"sort":               p.Sort,
		"number":             strconv.Itoa(p.Number),
	}
}
