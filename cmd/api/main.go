package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-v2/recommender/config"
	"github.com/pageza/alchemorsel-v2/recommender/internal/aggregator"
	"github.com/pageza/alchemorsel-v2/recommender/internal/cache"
	"github.com/pageza/alchemorsel-v2/recommender/internal/database"
	"github.com/pageza/alchemorsel-v2/recommender/internal/logger"
	"github.com/pageza/alchemorsel-v2/recommender/internal/middleware"
	"github.com/pageza/alchemorsel-v2/recommender/internal/planner"
	"github.com/pageza/alchemorsel-v2/recommender/internal/repository"
	"github.com/pageza/alchemorsel-v2/recommender/internal/scoring"
	"github.com/pageza/alchemorsel-v2/recommender/internal/server"
	"github.com/pageza/alchemorsel-v2/recommender/internal/service"
	"github.com/pageza/alchemorsel-v2/recommender/internal/source"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, string(cfg.Env))
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if cfg.Env != config.Production {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	// Redis is optional: without it the cache is process-local and requests
	// are not rate limited
	var backend cache.Backend
	redisClient, err := database.NewRedisClient(cfg, log)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		mem := cache.NewMemoryBackend(10 * time.Minute)
		defer mem.Close()
		backend = mem
	} else {
		defer redisClient.Close()
		backend = cache.NewRedisBackend(redisClient, "recommender:")
	}
	store := cache.NewStore(backend, log, cache.WithTTL(cfg.CacheTTL))

	candidates, err := newAggregator(cfg, db, store, log)
	if err != nil {
		return err
	}

	engine, err := scoring.NewEngine(tuning.Scoring)
	if err != nil {
		return err
	}
	assembler, err := planner.NewAssembler(candidates, engine, tuning.Planner, log)
	if err != nil {
		return err
	}
	mealPlans := service.NewMealPlanService(repository.NewPreferenceRepository(db), assembler, service.DefaultHistoryWindow, log)

	srv := server.New(server.Options{
		Addr:        cfg.Addr(),
		CORSOrigins: cfg.CORSOrigins,
		Ready:       func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}, mealPlans, rateLimit(redisClient, cfg.MealPlanRateLimit, log), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func newAggregator(cfg *config.Config, db *gorm.DB, store *cache.Store, log *zap.Logger) (*aggregator.Aggregator, error) {
	var signer source.ImageSigner
	if cfg.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		signer = s3cfg
	}
	catalog := source.NewCatalogSource(db, signer, log)

	var third source.Source
	if cfg.SpoonacularAPIKey != "" {
		third = source.NewSpoonacularSource(source.SpoonacularConfig{
			BaseURL:    cfg.SpoonacularURL,
			APIKey:     cfg.SpoonacularAPIKey,
			Timeout:    cfg.SpoonacularTimeout,
			RetryCount: 2,
		}, store, catalog, log)
	} else {
		log.Warn("no Spoonacular API key, serving first-party recipes only")
	}
	return aggregator.New(catalog, third, cfg.SourceTimeout, log), nil
}

func rateLimit(client *redis.Client, limit int, log *zap.Logger) gin.HandlerFunc {
	if client == nil || limit <= 0 {
		return nil
	}
	return middleware.NewMealPlanRateLimiter(client, limit, log).RateLimitMiddleware()
}
