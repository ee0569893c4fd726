package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/types"
)

// memCache is a thread-safe in-memory ResponseCache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	sets    int
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	c.ttls[key] = ttl
}

func (c *memCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *memCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// stubGenerator returns canned output, counting calls.
type stubGenerator struct {
	mu     sync.Mutex
	output string
	err    error
	calls  int
}

func (g *stubGenerator) GenerateRecipes(context.Context, *types.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.output, nil
}

func (g *stubGenerator) Provider() string { return "stub" }

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// stubLookup resolves facts from a fixed table keyed by ingredient id.
type stubLookup struct {
	mu    sync.Mutex
	facts map[string][]types.NutrientFact
	errs  map[string]error
	calls map[string]int
}

func newStubLookup() *stubLookup {
	return &stubLookup{
		facts: make(map[string][]types.NutrientFact),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (l *stubLookup) Resolve(_ context.Context, key types.IngredientKey) ([]types.NutrientFact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[key.ID]++
	if err, ok := l.errs[key.ID]; ok {
		return nil, err
	}
	return l.facts[key.ID], nil
}

func (l *stubLookup) callCount(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

// stubLimiter hands out a fixed decision.
type stubLimiter struct {
	decision Decision
}

func (l *stubLimiter) Allow(context.Context, string) Decision { return l.decision }
func (l *stubLimiter) Peek(context.Context, string) Decision  { return l.decision }

func allowAll() *stubLimiter {
	return &stubLimiter{decision: Decision{Allowed: true, Used: 1, Limit: 50, Remaining: 49}}
}

func testEnricher(lookup NutritionLookup, respCache ResponseCache) *Enricher {
	return NewEnricher(lookup, respCache, EnricherConfig{
		Concurrency:   4,
		LookupTimeout: time.Second,
		SuccessTTL:    time.Hour,
		NegativeTTL:   time.Minute,
	}, zap.NewNop(), metrics.NewTestMetrics())
}

func testPipeline(limiter Limiter, respCache ResponseCache, gen Generator, lookup NutritionLookup) *Pipeline {
	return NewPipeline(limiter, respCache, gen, testEnricher(lookup, respCache),
		PipelineConfig{CacheEnabled: true, RecipeTTL: time.Hour},
		zap.NewNop(), metrics.NewTestMetrics())
}
