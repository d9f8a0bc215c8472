package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pageza/alchemorsel-v2/recommender/internal/cache"
	"github.com/pageza/alchemorsel-v2/recommender/internal/similarity"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
)

// DefaultSpoonacularURL is the public API endpoint
const DefaultSpoonacularURL = "https://api.spoonacular.com"

const spoonacularCacheNamespace = "spoonacular:search"

// SpoonacularConfig configures the third-party client
type SpoonacularConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// SpoonacularSource searches the third-party catalog through a cache
type SpoonacularSource struct {
	client *resty.Client
	apiKey string
	cache  *cache.Store
	titles TitleIndex
	logger *zap.Logger
}

// NewSpoonacularSource creates a third-party source. store and titles may be
// nil, which disables caching and the cross-source title filter.
func NewSpoonacularSource(cfg SpoonacularConfig, store *cache.Store, titles TitleIndex, logger *zap.Logger) *SpoonacularSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSpoonacularURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &SpoonacularSource{
		client: client,
		apiKey: cfg.APIKey,
		cache:  store,
		titles: titles,
		logger: logger.With(zap.String("component", "source"), zap.String("source", string(types.SourceThirdParty))),
	}
}

func (s *SpoonacularSource) Name() string {
	return string(types.SourceThirdParty)
}

// FetchCandidates serves from cache when possible, otherwise searches
// upstream, drops near-duplicates of first-party titles and caches the
// filtered list under the unfiltered request key
func (s *SpoonacularSource) FetchCandidates(ctx context.Context, params FetchParams) []types.UnifiedRecipe {
	key := cache.Key(spoonacularCacheNamespace, params.CacheParams())

	var cached []types.UnifiedRecipe
	if s.cache.GetJSON(ctx, key, &cached) {
		s.logger.Debug("serving third-party candidates from cache", zap.Int("count", len(cached)))
		return s.filterKnown(ctx, cached)
	}

	if s.apiKey == "" {
		s.logger.Warn("third-party api key not configured, skipping fetch")
		return []types.UnifiedRecipe{}
	}

	start := time.Now()
	results, err := s.search(ctx, params)
	if err != nil {
		s.logger.Warn("third-party fetch failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return []types.UnifiedRecipe{}
	}

	recipes := make([]types.UnifiedRecipe, 0, len(results))
	malformed := 0
	for _, res := range results {
		r, bad := res.toUnified()
		malformed += bad
		recipes = append(recipes, r)
	}
	if malformed > 0 {
		s.logger.Warn("coerced malformed third-party fields", zap.Int("malformed", malformed))
	}

	filtered := s.filterKnown(ctx, recipes)
	s.cache.SetJSON(ctx, key, filtered)

	s.logger.Info("third-party fetch complete",
		zap.Int("count", len(filtered)),
		zap.Int("filtered", len(recipes)-len(filtered)),
		zap.Duration("duration", time.Since(start)),
	)
	return filtered
}

func (s *SpoonacularSource) search(ctx context.Context, params FetchParams) ([]spoonacularRecipe, error) {
	query := map[string]string{
		"apiKey":               s.apiKey,
		"addRecipeInformation": "true",
		"addRecipeNutrition":   "true",
		"fillIngredients":      "true",
		"instructionsRequired": "true",
	}
	if params.Number > 0 {
		query["number"] = strconv.Itoa(params.Number)
	}
	if len(params.Diet) > 0 {
		query["diet"] = strings.Join(params.Diet, ",")
	}
	if len(params.Intolerances) > 0 {
		query["intolerances"] = strings.Join(params.Intolerances, ",")
	}
	if params.Cuisine != "" {
		query["cuisine"] = params.Cuisine
	}
	if len(params.IncludeIngredients) > 0 {
		query["includeIngredients"] = strings.Join(params.IncludeIngredients, ",")
	}
	if params.MaxReadyTime > 0 {
		query["maxReadyTime"] = strconv.Itoa(params.MaxReadyTime)
	}
	if params.Sort != "" {
		query["sort"] = params.Sort
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get("/recipes/complexSearch")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to spoonacular: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusPaymentRequired:
		return nil, fmt.Errorf("spoonacular quota exhausted")
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("spoonacular rejected api key")
	default:
		return nil, fmt.Errorf("spoonacular returned status %d", resp.StatusCode())
	}

	var out struct {
		Results []spoonacularRecipe `json:"results"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse spoonacular response: %w", err)
	}
	return out.Results, nil
}

func (s *SpoonacularSource) filterKnown(ctx context.Context, recipes []types.UnifiedRecipe) []types.UnifiedRecipe {
	if s.titles == nil {
		return recipes
	}
	known := s.titles.KnownTitles(ctx)
	if len(known) == 0 {
		return recipes
	}

	out := make([]types.UnifiedRecipe, 0, len(recipes))
	for _, r := range recipes {
		if !matchesAny(r.Title, known) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAny(title string, known []string) bool {
	for _, k := range known {
		if similarity.TitleSimilarity(title, k) > similarity.TitleThreshold {
			return true
		}
	}
	return false
}

type spoonacularRecipe struct {
	ID                   int             `json:"id"`
	Title                string          `json:"title"`
	Image                string          `json:"image"`
	ReadyInMinutes       int             `json:"readyInMinutes"`
	Servings             int             `json:"servings"`
	ExtendedIngredients  []RawIngredient `json:"extendedIngredients"`
	DishTypes            []string        `json:"dishTypes"`
	Diets                []string        `json:"diets"`
	Cuisines             []string        `json:"cuisines"`
	Vegetarian           bool            `json:"vegetarian"`
	Vegan                bool            `json:"vegan"`
	GlutenFree           bool            `json:"glutenFree"`
	DairyFree            bool            `json:"dairyFree"`
	SpoonacularScore     *float64        `json:"spoonacularScore"`
	PricePerServing      *float64        `json:"pricePerServing"`
	Summary              string          `json:"summary"`
	Instructions         string          `json:"instructions"`
	AnalyzedInstructions []struct {
		Steps []struct {
			Number int    `json:"number"`
			Step   string `json:"step"`
		} `json:"steps"`
	} `json:"analyzedInstructions"`
	Nutrition *struct {
		Nutrients []struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		} `json:"nutrients"`
	} `json:"nutrition"`
}

var dishTypeMealTags = map[string]types.MealType{
	"breakfast":    types.MealBreakfast,
	"morning meal": types.MealBreakfast,
	"brunch":       types.MealBreakfast,
	"lunch":        types.MealLunch,
	"dinner":       types.MealDinner,
	"main course":  types.MealDinner,
	"main dish":    types.MealDinner,
	"snack":        types.MealSnacks,
	"appetizer":    types.MealSnacks,
	"fingerfood":   types.MealSnacks,
	"antipasti":    types.MealSnacks,
}

var dietTags = map[string]string{
	"gluten free":          "gluten-free",
	"dairy free":           "dairy-free",
	"lacto ovo vegetarian": "vegetarian",
	"ketogenic":            "keto",
	"paleolithic":          "paleo",
	"whole 30":             "whole30",
	"fodmap friendly":      "low-fodmap",
}

// toUnified maps an upstream record. Summary and long-form instructions are
// not carried over.
func (r spoonacularRecipe) toUnified() (types.UnifiedRecipe, int) {
	malformed := 0

	ingredients, bad := CanonicalIngredients(r.ExtendedIngredients)
	malformed += bad

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Untitled recipe"
		malformed++
	}
	ready := r.ReadyInMinutes
	if ready < 0 {
		ready = 0
		malformed++
	}
	servings := r.Servings
	if servings < 1 {
		servings = 1
	}

	out := types.UnifiedRecipe{
		ID:             types.ThirdPartyPrefix + strconv.Itoa(r.ID),
		Source:         types.SourceThirdParty,
		Title:          title,
		ImageURL:       r.Image,
		ReadyInMinutes: ready,
		Servings:       servings,
		Ingredients:    ingredients,
		Tags:           r.tags(),
		Instructions:   r.steps(),
	}
	if len(r.Cuisines) > 0 {
		out.Cuisine = strings.ToLower(r.Cuisines[0])
	}
	if r.Nutrition != nil {
		n := &types.Nutrition{}
		for _, nut := range r.Nutrition.Nutrients {
			switch strings.ToLower(nut.Name) {
			case "calories":
				n.Calories = nut.Amount
			case "protein":
				n.Protein = nut.Amount
			case "fat":
				n.Fat = nut.Amount
			case "carbohydrates":
				n.Carbs = nut.Amount
			}
		}
		out.Nutrition = n
	}
	if r.SpoonacularScore != nil {
		pop := clamp01(*r.SpoonacularScore / 100)
		out.PopularityScore = &pop
	}
	if r.PricePerServing != nil && *r.PricePerServing >= 0 {
		cost := *r.PricePerServing / 100
		out.CostPerServing = &cost
	}
	return out, malformed
}

func (r spoonacularRecipe) tags() []string {
	var meal []string
	var rest []string
	for _, dt := range r.DishTypes {
		dt = strings.ToLower(strings.TrimSpace(dt))
		if mt, ok := dishTypeMealTags[dt]; ok {
			meal = append(meal, string(mt))
		}
	}
	for _, d := range r.Diets {
		d = strings.ToLower(strings.TrimSpace(d))
		if alias, ok := dietTags[d]; ok {
			d = alias
		}
		rest = append(rest, d)
	}
	if r.Vegetarian {
		rest = append(rest, "vegetarian")
	}
	if r.Vegan {
		rest = append(rest, "vegan")
	}
	if r.GlutenFree {
		rest = append(rest, "gluten-free")
	}
	if r.DairyFree {
		rest = append(rest, "dairy-free")
	}
	rest = append(rest, r.Cuisines...)
	return types.NormalizeTags(append(meal, rest...))
}

func (r spoonacularRecipe) steps() []string {
	var steps []string
	for _, block := range r.AnalyzedInstructions {
		for _, st := range block.Steps {
			if len(steps) == types.MaxThirdPartyInstructions {
				return steps
			}
			if text := strings.TrimSpace(st.Step); text != "" {
				steps = append(steps, text)
			}
		}
	}
	return steps
}
