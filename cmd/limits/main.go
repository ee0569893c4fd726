package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/config"
	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/database"
)

// Inspects or resets an identity's daily budget directly in Redis.
// Resetting is for support cases; the counters expire on their own.
func main() {
	identity := flag.String("identity", "", "identity whose counter to inspect")
	reset := flag.Bool("reset", false, "clear the identity's counter for today")
	flag.Parse()

	if *identity == "" {
		log.Fatal("-identity is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Redis.Configured() {
		log.Fatal("no redis configured; process-local counters cannot be inspected")
	}

	client, err := database.NewRedisClient(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	day := time.Now().UTC().Format("2006-01-02")
	key := cache.RateLimitKey(*identity, day)

	if *reset {
		if err := client.Del(ctx, key).Err(); err != nil {
			log.Fatalf("Failed to reset counter: %v", err)
		}
		fmt.Printf("reset %s\n", key)
		return
	}

	used, err := client.Get(ctx, key).Int()
	if err == redis.Nil {
		used = 0
	} else if err != nil {
		log.Fatalf("Failed to read counter: %v", err)
	}

	remaining := cfg.RateLimit.Daily - used
	if remaining < 0 {
		remaining = 0
	}
	fmt.Printf("identity=%s used=%d limit=%d remaining=%d day=%s\n",
		*identity, used, cfg.RateLimit.Daily, remaining, day)
}
