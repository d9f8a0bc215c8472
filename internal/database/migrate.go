package database

import (
	"fmt"

	"github.com/pageza/alchemorsel-v2/recommender/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the catalog and preference tables. It is meant
// for development databases; production schemas are managed outside the
// service.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	all := models.All()
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to migrate %s database: %w", db.Dialector.Name(), err)
	}
	logger.Info("database migrated", zap.String("dialect", db.Dialector.Name()), zap.Int("models", len(all)))
	return nil
}
