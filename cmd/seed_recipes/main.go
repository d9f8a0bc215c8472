package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pageza/alchemorsel-v2/recommender/config"
	"github.com/pageza/alchemorsel-v2/recommender/internal/database"
	"github.com/pageza/alchemorsel-v2/recommender/internal/logger"
	"github.com/pageza/alchemorsel-v2/recommender/internal/models"
	"github.com/pageza/alchemorsel-v2/recommender/internal/source"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	path := flag.String("file", "seed/recipes.json", "JSON array of catalog recipes")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, string(cfg.Env))
	defer log.Sync()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal("failed to open seed file", zap.Error(err))
	}
	defer f.Close()

	recipes, err := loadRecipes(f)
	if err != nil {
		log.Fatal("failed to read seed file", zap.String("file", *path), zap.Error(err))
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	created, skipped, err := seedRecipes(context.Background(), db, recipes, log)
	if err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("seeding complete", zap.Int("created", created), zap.Int("skipped", skipped))
}

// loadRecipes decodes the seed file. Ingredients stay as raw JSON so every
// upstream shape reaches the catalog untouched.
func loadRecipes(r io.Reader) ([]models.CatalogRecipe, error) {
	var recipes []models.CatalogRecipe
	if err := json.NewDecoder(r).Decode(&recipes); err != nil {
		return nil, err
	}
	for i, rec := range recipes {
		if strings.TrimSpace(rec.Title) == "" {
			return nil, fmt.Errorf("recipe %d has no title", i)
		}
		recipes[i].ID = 0
	}
	return recipes, nil
}

// seedRecipes inserts recipes whose title is not in the catalog yet
func seedRecipes(ctx context.Context, db *gorm.DB, recipes []models.CatalogRecipe, log *zap.Logger) (int, int, error) {
	created, skipped := 0, 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recipes {
			var existing models.CatalogRecipe
			err := tx.Where("LOWER(title) = ?", strings.ToLower(strings.TrimSpace(rec.Title))).First(&existing).Error
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up %q: %w", rec.Title, err)
			}

			if _, malformed := source.DecodeIngredients(rec.Ingredients); malformed > 0 {
				log.Warn("recipe has malformed ingredients", zap.String("title", rec.Title), zap.Int("malformed", malformed))
			}
			rec.Title = strings.TrimSpace(rec.Title)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("failed to create %q: %w", rec.Title, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}
