// Package aggregator gathers candidates from every source concurrently and
// removes near-duplicates.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/alchemorsel-v2/recommender/internal/similarity"
	"github.com/pageza/alchemorsel-v2/recommender/internal/source"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSourceTimeout bounds a single source invocation
const DefaultSourceTimeout = 8 * time.Second

// Aggregator combines a first-party and a third-party source. It is safe
// for concurrent use; its only state is the offset tracker.
type Aggregator struct {
	first   source.Source
	third   source.Source
	timeout time.Duration
	offsets *OffsetTracker
	logger  *zap.Logger
}

// New creates an Aggregator. Either source may be nil.
func New(first, third source.Source, timeout time.Duration, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		first:   first,
		third:   third,
		timeout: timeout,
		offsets: NewOffsetTracker(),
		logger:  logger.With(zap.String("component", "aggregator")),
	}
}

// Offsets exposes the paging state, mostly for tests
func (a *Aggregator) Offsets() *OffsetTracker {
	return a.offsets
}

// GenerateCandidates fetches from both sources at once, concatenates
// first-party before third-party results and deduplicates the combined
// list. An empty result is logged, not returned as an error.
func (a *Aggregator) GenerateCandidates(ctx context.Context, params source.FetchParams) []types.UnifiedRecipe {
	start := time.Now()

	firstParams := params
	if params.UserID != "" {
		firstParams.Offset = a.offsets.Offset(params.UserID)
	}

	var firstResults, thirdResults []types.UnifiedRecipe
	var g errgroup.Group
	g.Go(func() error {
		firstResults = a.invoke(ctx, a.first, firstParams)
		return nil
	})
	g.Go(func() error {
		thirdResults = a.invoke(ctx, a.third, params)
		return nil
	})
	_ = g.Wait()

	if params.UserID != "" {
		a.offsets.Advance(params.UserID, len(firstResults), firstParams.Number)
	}

	combined := make([]types.UnifiedRecipe, 0, len(firstResults)+len(thirdResults))
	combined = append(combined, firstResults...)
	combined = append(combined, thirdResults...)

	valid, invalid := dropInvalid(combined)
	if invalid > 0 {
		a.logger.Warn("dropped structurally invalid candidates", zap.Int("malformed", invalid))
	}

	candidates := Deduplicate(valid)
	if len(candidates) == 0 {
		a.logger.Warn("no candidates from any source",
			zap.Int("first_party", len(firstResults)),
			zap.Int("third_party", len(thirdResults)),
		)
		return candidates
	}

	a.logger.Info("generated candidates",
		zap.Int("first_party", len(firstResults)),
		zap.Int("third_party", len(thirdResults)),
		zap.Int("duplicates", len(valid)-len(candidates)),
		zap.Int("count", len(candidates)),
		zap.Duration("duration", time.Since(start)),
	)
	return candidates
}

// invoke runs one source under its own timeout. A panic, a timeout or an
// empty batch all count as that source contributing nothing.
func (a *Aggregator) invoke(ctx context.Context, src source.Source, params source.FetchParams) []types.UnifiedRecipe {
	if src == nil {
		return nil
	}
	name := src.Name()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan []types.UnifiedRecipe, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("source panicked", zap.String("source", name), zap.Error(fmt.Errorf("%v", r)))
				done <- nil
			}
		}()
		done <- src.FetchCandidates(ctx, params)
	}()

	select {
	case res := <-done:
		if len(res) == 0 {
			a.logger.Warn("source returned no candidates", zap.String("source", name))
		}
		return res
	case <-ctx.Done():
		a.logger.Warn("source timed out", zap.String("source", name), zap.Duration("timeout", a.timeout))
		return nil
	}
}

func dropInvalid(recipes []types.UnifiedRecipe) ([]types.UnifiedRecipe, int) {
	out := make([]types.UnifiedRecipe, 0, len(recipes))
	for _, r := range recipes {
		if r.Validate() == nil {
			out = append(out, r)
		}
	}
	return out, len(recipes) - len(out)
}

// Deduplicate keeps the first of every group of near-duplicates in input
// order. A candidate is a duplicate when its title or leading ingredients
// match any candidate already kept. Running it twice changes nothing.
func Deduplicate(recipes []types.UnifiedRecipe) []types.UnifiedRecipe {
	accepted := make([]types.UnifiedRecipe, 0, len(recipes))
	for _, candidate := range recipes {
		duplicate := false
		for _, kept := range accepted {
			if similarity.Duplicate(candidate, kept) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}
