package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/database"
	"github.com/pageza/mealforge/internal/logging"
	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/service"
	"github.com/pageza/mealforge/internal/types"
)

// Common pantries warmed ahead of traffic. Digests depend only on the
// canonical request, so entries written here are served to every
// replica.
var pantries = [][]string{
	{"chicken breast", "rice", "broccoli"},
	{"ground beef", "pasta", "canned tomatoes"},
	{"black beans", "brown rice", "bell pepper"},
	{"eggs", "potatoes", "onion"},
	{"salmon", "quinoa", "asparagus"},
	{"tofu", "rice noodles", "carrots"},
	{"chickpeas", "spinach", "garlic"},
	{"lentils", "rice", "onion"},
	{"shrimp", "pasta", "zucchini"},
	{"pork chops", "sweet potatoes", "green beans"},
}

func main() {
	provider := flag.String("provider", "", "override the generation provider")
	delay := flag.Duration("delay", 2*time.Second, "pause between generations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *provider != "" {
		cfg.Generation.Provider = *provider
	}
	if !cfg.Redis.Configured() {
		log.Fatal("warming needs a shared cache; configure REDIS_HOST or REDIS_URL")
	}

	logger := logging.New(logging.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Environment == string(config.Development),
	})
	defer func() { _ = logger.Sync() }()

	m := metrics.NewMetrics(prometheus.NewRegistry())

	redisClient, err := database.NewRedisClient(cfg, logger)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()

	local := cache.NewLocalCache(0)
	defer local.Close()
	tiered := cache.NewTieredCache(local, cache.NewRedisStore(redisClient), cfg.Cache.LocalTTL, logger, m)

	var generator service.Generator
	switch cfg.Generation.Provider {
	case "mock":
		generator = service.NewMockGenerator()
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
	}

	enricher := service.NewEnricher(lookup, tiered, service.EnricherConfig{
		Concurrency:   cfg.Nutrition.Concurrency,
		LookupTimeout: cfg.Nutrition.Timeout,
		SuccessTTL:    cfg.Cache.IngredientTTL,
		NegativeTTL:   cfg.Cache.NegativeTTL,
	}, logger, m)

	// The warmer runs on its own local budget so it never draws down a
	// real identity's allowance.
	limiter := service.NewRateLimiter(nil, len(pantries), logger, m)

	pipeline := service.NewPipeline(limiter, tiered, generator, enricher, service.PipelineConfig{
		CacheEnabled: true,
		RecipeTTL:    cfg.Cache.RecipeTTL,
	}, logger, m)

	ctx := context.Background()
	warmed, failed := 0, 0
	for i, pantry := range pantries {
		result := pipeline.Run(ctx, &types.GenerateRequest{
			Ingredients: pantry,
			Servings:    types.DefaultServings,
			Identity:    "cache-warmer",
		})
		if result.Status != types.StatusDone {
			failed++
			logger.Warn("warm failed",
				zap.Strings("pantry", pantry),
				zap.String("reason", result.FailureReason))
		} else {
			warmed++
			logger.Info("warmed",
				zap.Strings("pantry", pantry),
				zap.Bool("already_cached", result.Cached),
				zap.Int("recipes", len(result.Recipes)))
		}
		if i < len(pantries)-1 {
			time.Sleep(*delay)
		}
	}

	logger.Info("warm pass complete", zap.Int("warmed", warmed), zap.Int("failed", failed))
	if warmed == 0 {
		logger.Fatal("no pantry could be warmed")
	}
}
