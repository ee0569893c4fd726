package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/types"
)

// IngredientEnrichment is the per-ingredient outcome of the enrichment
// stage. Resolved is false for skipped, failed, and empty lookups; the
// ingredient is then simply absent from the totals.
type IngredientEnrichment struct {
	Ingredient types.RecipeIngredient
	Key        types.IngredientKey
	Facts      []types.NutrientFact
	Resolved   bool
}

// RecipeEnrichment holds one recipe's ingredient outcomes, in the
// recipe's ingredient order.
type RecipeEnrichment struct {
	Ingredients []IngredientEnrichment
}

// EnricherConfig tunes the fan-out and the per-lookup cache.
type EnricherConfig struct {
	Concurrency   int
	LookupTimeout time.Duration
	SuccessTTL    time.Duration
	NegativeTTL   time.Duration
}

// Enricher resolves every ingredient of every recipe against the
// nutrition lookup with bounded concurrency. One ingredient's failure
// never affects its siblings, and results keep input order.
type Enricher struct {
	lookup  NutritionLookup
	cache   ResponseCache
	cfg     EnricherConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// cachedLookup is the per-lookup cache entry. Failed entries are
// negative cache sentinels with a short TTL.
type cachedLookup struct {
	Facts  []types.NutrientFact `json:"facts,omitempty"`
	Failed bool                 `json:"failed,omitempty"`
}

// NewEnricher builds the enrichment stage.
func NewEnricher(lookup NutritionLookup, responseCache ResponseCache, cfg EnricherConfig, logger *zap.Logger, m *metrics.Metrics) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 4 * time.Second
	}
	return &Enricher{
		lookup:  lookup,
		cache:   responseCache,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Enrich scatters lookups for all recipes and gathers per-ingredient
// outcomes. The returned slice is parallel to recipes, and each entry's
// Ingredients slice is parallel to that recipe's ingredient list.
func (e *Enricher) Enrich(ctx context.Context, recipes []types.GeneratedRecipe) []RecipeEnrichment {
	start := time.Now()
	defer func() {
		e.metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	}()

	results := make([]RecipeEnrichment, len(recipes))
	for i, recipe := range recipes {
		results[i].Ingredients = make([]IngredientEnrichment, len(recipe.Ingredients))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for ri, recipe := range recipes {
		for ii, ing := range recipe.Ingredients {
			slot := &results[ri].Ingredients[ii]
			slot.Ingredient = ing

			key, ok := ParseIngredient(ing)
			if !ok {
				e.metrics.EnrichmentLookups.WithLabelValues("skipped").Inc()
				continue
			}
			slot.Key = key

			g.Go(func() error {
				// Workers record their outcome in their own slot and
				// never return an error, so a failed lookup cannot
				// cancel its siblings.
				slot.Facts, slot.Resolved = e.resolveOne(gctx, key)
				return nil
			})
		}
	}

	// Always nil by construction.
	_ = g.Wait()

	return results
}

// resolveOne answers a single lookup, consulting the ingredient cache
// first and recording the outcome after.
func (e *Enricher) resolveOne(ctx context.Context, key types.IngredientKey) ([]types.NutrientFact, bool) {
	cacheKey := cache.IngredientInfoKey(key)

	if data, found := e.cache.Get(ctx, cacheKey); found {
		var entry cachedLookup
		if err := json.Unmarshal(data, &entry); err == nil {
			if entry.Failed || len(entry.Facts) == 0 {
				e.metrics.EnrichmentLookups.WithLabelValues("cached_negative").Inc()
				return nil, false
			}
			e.metrics.EnrichmentLookups.WithLabelValues("cached").Inc()
			return entry.Facts, true
		}
		// Unreadable entries are dropped and re-fetched.
		e.logger.Warn("discarding undecodable ingredient cache entry", zap.String("key", cacheKey))
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	defer cancel()

	facts, err := e.lookup.Resolve(lookupCtx, key)
	if errors.Is(err, ErrLookupDisabled) {
		// Capability is off, not a lookup failure. Leave the cache
		// alone so enabling the API later starts from a clean slate.
		e.metrics.EnrichmentLookups.WithLabelValues("disabled").Inc()
		return nil, false
	}
	if err != nil || len(facts) == 0 {
		if err != nil {
			e.logger.Debug("nutrition lookup absent",
				zap.String("ingredient", key.ID),
				zap.Error(err))
		}
		e.metrics.EnrichmentLookups.WithLabelValues("failed").Inc()
		e.store(ctx, cacheKey, cachedLookup{Failed: true}, e.cfg.NegativeTTL)
		return nil, false
	}

	e.metrics.EnrichmentLookups.WithLabelValues("resolved").Inc()
	e.store(ctx, cacheKey, cachedLookup{Facts: facts}, e.cfg.SuccessTTL)
	return facts, true
}

func (e *Enricher) store(ctx context.Context, key string, entry cachedLookup, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	e.cache.Set(ctx, key, data, ttl)
}
