package main

import (
	"fmt"
	"os"

	"github.com/pageza/alchemorsel-v2/recommender/config"
	"github.com/pageza/alchemorsel-v2/recommender/internal/database"
	"github.com/pageza/alchemorsel-v2/recommender/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, string(cfg.Env))
	defer log.Sync()

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}
