package main

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/api"
	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/database"
	"github.com/pageza/mealforge/internal/logging"
	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/router"
	"github.com/pageza/mealforge/internal/server"
	"github.com/pageza/mealforge/internal/service"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Environment == string(config.Development),
	})
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("provider", cfg.Generation.Provider),
		zap.String("version", version))

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	// The shared store is optional: without it the service runs on the
	// local cache tier and a process-local rate limiter.
	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = database.NewRedisClient(cfg, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing local-only", zap.Error(err))
			redisClient = nil
		}
	}

	local := cache.NewLocalCache(cfg.Cache.LocalTTL)
	defer local.Close()

	var shared cache.Store
	if redisClient != nil {
		shared = cache.NewRedisStore(redisClient)
	}
	tiered := cache.NewTieredCache(local, shared, cfg.Cache.LocalTTL, logger, m)

	limiter := service.NewRateLimiter(redisClient, cfg.RateLimit.Daily, logger, m)

	var generator service.Generator
	switch cfg.Generation.Provider {
	case "mock":
		generator = service.NewMockGenerator()
		logger.Warn("using the mock generation provider")
	default:
		llm, err := service.NewLLMService(cfg.Generation, logger, m)
		if err != nil {
			logger.Fatal("generation provider unusable", zap.Error(err))
		}
		generator = llm
	}

	var lookup service.NutritionLookup = service.NoopNutrition{}
	if cfg.Nutrition.Enabled() {
		lookup = service.NewNutritionClient(cfg.Nutrition, logger)
	} else {
		logger.Info("nutrition lookups disabled, recipes keep their generated estimates")
	}

	enricher := service.NewEnricher(lookup, tiered, service.EnricherConfig{
		Concurrency:   cfg.Nutrition.Concurrency,
		LookupTimeout: cfg.Nutrition.Timeout,
		SuccessTTL:    cfg.Cache.IngredientTTL,
		NegativeTTL:   cfg.Cache.NegativeTTL,
	}, logger, m)

	pipeline := service.NewPipeline(limiter, tiered, generator, enricher, service.PipelineConfig{
		CacheEnabled: cfg.Cache.Enabled,
		RecipeTTL:    cfg.Cache.RecipeTTL,
	}, logger, m)

	jwtService := service.NewJWTService(cfg.Auth.JWTSecret)

	recipeHandler := api.NewRecipeHandler(pipeline, limiter, logger)
	healthHandler := api.NewHealthHandler(redisClient, version)

	engine := router.SetupRouter(cfg, logger, registry, recipeHandler, healthHandler, jwtService)

	srv := server.New(cfg.Server.Addr(), engine, cfg.Server.ShutdownTimeout, logger)
	if err := srv.Run(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
