// Package source adapts the first-party and third-party recipe catalogs into
// UnifiedRecipe candidates.
package source

import (
	"context"

	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

// Source fetches a batch of candidates from one upstream. Implementations
// never return errors: a failed fetch yields an empty slice and a log entry.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context, params FetchParams) []types.UnifiedRecipe
}

// TitleIndex lists the titles already known to the first-party catalog
type TitleIndex interface {
	KnownTitles(ctx context.Context) []string
}

// StaticTitles is a fixed TitleIndex
type StaticTitles []string

func (s StaticTitles) KnownTitles(ctx context.Context) []string {
	return s
}
