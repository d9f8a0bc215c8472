package source

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pageza/alchemorsel-v2/recommender/internal/models"
	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageSigner turns a stored object key into a fetchable URL
type ImageSigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error)
}

// imageURLExpiry is how long presigned catalog image links stay valid
const imageURLExpiry = 6 * time.Hour

// maxKnownTitles bounds the title index query
const maxKnownTitles = 5000

// CatalogSource reads the first-party catalog
type CatalogSource struct {
	db     *gorm.DB
	signer ImageSigner
	logger *zap.Logger
	// ordered is set when the table has created_at; checked once at construction
	ordered bool
}

// NewCatalogSource creates a first-party source. signer may be nil when
// catalog images are stored as plain URLs. The schema is inspected once, so
// the table should be migrated first.
func NewCatalogSource(db *gorm.DB, signer ImageSigner, logger *zap.Logger) *CatalogSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CatalogSource{
		db:      db,
		signer:  signer,
		logger:  logger.With(zap.String("component", "source"), zap.String("source", string(types.SourceFirstParty))),
		ordered: db.Migrator().HasColumn(&models.CatalogRecipe{}, "created_at"),
	}
	if !s.ordered {
		s.logger.Info("catalog has no created_at column, using unordered retrieval")
	}
	return s
}

func (s *CatalogSource) Name() string {
	return string(types.SourceFirstParty)
}

// FetchCandidates returns the newest catalog rows after params.Offset. When
// the table has no created_at column the rows come back unordered.
func (s *CatalogSource) FetchCandidates(ctx context.Context, params FetchParams) []types.UnifiedRecipe {
	start := time.Now()
	query := s.db.WithContext(ctx).Model(&models.CatalogRecipe{})

	if s.ordered {
		query = query.Order("created_at DESC").Order("id DESC")
	}
	if params.Number > 0 {
		query = query.Limit(params.Number)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	var rows []models.CatalogRecipe
	if err := query.Find(&rows).Error; err != nil {
		s.logger.Warn("catalog fetch failed", zap.Error(err))
		return []types.UnifiedRecipe{}
	}

	recipes := make([]types.UnifiedRecipe, 0, len(rows))
	malformed := 0
	for _, row := range rows {
		r, bad := s.toUnified(ctx, row)
		malformed += bad
		recipes = append(recipes, r)
	}
	if malformed > 0 {
		s.logger.Warn("coerced malformed catalog fields", zap.Int("malformed", malformed))
	}

	s.logger.Debug("catalog fetch complete",
		zap.Int("count", len(recipes)),
		zap.Duration("duration", time.Since(start)),
	)
	return recipes
}

// KnownTitles returns every catalog title, used to keep third-party
// near-duplicates out of the candidate set
func (s *CatalogSource) KnownTitles(ctx context.Context) []string {
	var titles []string
	err := s.db.WithContext(ctx).Model(&models.CatalogRecipe{}).
		Limit(maxKnownTitles).
		Pluck("title", &titles).Error
	if err != nil {
		s.logger.Warn("failed to load catalog titles", zap.Error(err))
		return nil
	}
	return titles
}

// toUnified maps a row and reports how many fields needed a placeholder
func (s *CatalogSource) toUnified(ctx context.Context, row models.CatalogRecipe) (types.UnifiedRecipe, int) {
	malformed := 0

	ingredients, bad := DecodeIngredients([]byte(row.Ingredients))
	malformed += bad

	title := strings.TrimSpace(row.Title)
	if title == "" {
		title = "Untitled recipe"
		malformed++
	}

	ready := row.TotalMinutes
	if ready <= 0 {
		ready = row.PrepMinutes + row.CookMinutes
	}
	if ready < 0 {
		ready = 0
		malformed++
	}

	servings := row.Servings
	if servings < 1 {
		servings = 1
	}

	tags := append([]string{}, row.Tags...)
	if row.Cuisine != "" {
		tags = append(tags, row.Cuisine)
	}

	r := types.UnifiedRecipe{
		ID:             types.FirstPartyPrefix + strconv.FormatUint(uint64(row.ID), 10),
		Source:         types.SourceFirstParty,
		Title:          title,
		ImageURL:       s.imageURL(ctx, row),
		ReadyInMinutes: ready,
		Servings:       servings,
		Ingredients:    ingredients,
		Tags:           types.NormalizeTags(tags),
		Cuisine:        strings.ToLower(row.Cuisine),
		Instructions:   append([]string(nil), row.Instructions...),
		CostPerServing: row.CostPerServing,
	}

	if row.Calories != nil || row.Protein != nil || row.Fat != nil || row.Carbs != nil {
		r.Nutrition = &types.Nutrition{
			Calories: deref(row.Calories),
			Protein:  deref(row.Protein),
			Fat:      deref(row.Fat),
			Carbs:    deref(row.Carbs),
		}
	}
	if row.Rating != nil {
		pop := clamp01(*row.Rating)
		r.PopularityScore = &pop
	}
	return r, malformed
}

func (s *CatalogSource) imageURL(ctx context.Context, row models.CatalogRecipe) string {
	if row.ImageURL != "" || row.ImageKey == "" || s.signer == nil {
		return row.ImageURL
	}
	url, err := s.signer.GeneratePresignedURL(ctx, row.ImageKey, imageURLExpiry)
	if err != nil {
		s.logger.Warn("failed to sign catalog image", zap.String("key", row.ImageKey), zap.Error(err))
		return ""
	}
	return url
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
