// Package similarity provides the fuzzy text and ingredient matching used to
// detect near-duplicate recipes.
package similarity

import (
	"strings"
	"unicode"

	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

const (
	// TitleThreshold is the title similarity at which two recipes are the same dish
	TitleThreshold = 0.9
	// IngredientThreshold is the bigram Jaccard at which ingredient lists overlap
	IngredientThreshold = 0.7
	// IngredientPrefix bounds how many ingredients of each recipe are compared
	IngredientPrefix = 6
)

// Levenshtein returns the edit distance between a and b, counted in runes
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// noiseWords carry no information about the dish itself
var noiseWords = map[string]bool{
	"recipe":   true,
	"recipes":  true,
	"easy":     true,
	"homemade": true,
	"best":     true,
	"classic":  true,
}

// NormalizeTitle lowercases a title, drops punctuation, collapses whitespace
// and removes noise words. A title made only of noise words is kept as is.
func NormalizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, title)
	words := strings.Fields(cleaned)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !noiseWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}

// TitleSimilarity returns 1 minus the edit distance between the normalized
// titles divided by the longer one's length. Two empty titles are identical.
// A title that normalizes to nothing is compared in its raw lowercase form.
func TitleSimilarity(a, b string) float64 {
	a, b = comparableTitle(a), comparableTitle(b)
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

func comparableTitle(title string) string {
	if n := NormalizeTitle(title); n != "" {
		return n
	}
	return strings.ToLower(strings.TrimSpace(title))
}

// SameTitle reports whether two titles name the same recipe
func SameTitle(a, b string) bool {
	return TitleSimilarity(a, b) >= TitleThreshold
}

// Bigrams returns the set of lowercase two-rune substrings across all items
func Bigrams(items []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range items {
		r := []rune(strings.ToLower(s))
		for i := 0; i+1 < len(r); i++ {
			set[string(r[i:i+2])] = struct{}{}
		}
	}
	return set
}

// BigramJaccard returns |A∩B| / |A∪B| over the bigram sets of the two lists.
// Two empty sets give 0.
func BigramJaccard(a, b []string) float64 {
	return jaccard(Bigrams(a), Bigrams(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	union := len(a)
	for k := range b {
		if _, ok := a[k]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// IngredientJaccard compares the leading ingredient names of two recipes
func IngredientJaccard(a, b []types.Ingredient) float64 {
	return BigramJaccard(prefixNames(a), prefixNames(b))
}

// OverlappingIngredients reports whether two ingredient lists are near-duplicates
func OverlappingIngredients(a, b []types.Ingredient) bool {
	return IngredientJaccard(a, b) >= IngredientThreshold
}

// Duplicate reports whether two recipes are the same dish by title or ingredients
func Duplicate(a, b types.UnifiedRecipe) bool {
	return SameTitle(a.Title, b.Title) || OverlappingIngredients(a.Ingredients, b.Ingredients)
}

// prefixNames returns the first IngredientPrefix ingredient names, skipping
// placeholders left by records that could not be mapped
func prefixNames(ings []types.Ingredient) []string {
	names := make([]string, 0, IngredientPrefix)
	for _, ing := range ings {
		if len(names) == IngredientPrefix {
			break
		}
		if ing.Name == "" || ing.Name == types.UnknownIngredient {
			continue
		}
		names = append(names, ing.Name)
	}
	return names
}
