package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/metrics"
	"github.com/pageza/mealforge/internal/types"
)

// State is a step in the pipeline's fixed progression.
type State string

const (
	StateStart        State = "START"
	StateRateChecked  State = "RATE_CHECKED"
	StateCacheChecked State = "CACHE_CHECKED"
	StateGenerated    State = "GENERATED"
	StateEnriching    State = "ENRICHING"
	StateAggregated   State = "AGGREGATED"
	StateCached       State = "CACHED"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// PipelineConfig tunes the orchestration.
type PipelineConfig struct {
	CacheEnabled bool
	RecipeTTL    time.Duration
}

// Pipeline runs the generate-then-enrich flow: rate check, cache
// check, generation, enrichment, aggregation, cache write. Enrichment
// and cache trouble degrade the result; only rate denial, generation
// failure, and unparseable output terminate a run.
type Pipeline struct {
	limiter   Limiter
	respCache ResponseCache
	generator Generator
	enricher  *Enricher
	cfg       PipelineConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewPipeline wires the orchestrator. All collaborators are injected;
// nothing here reaches for globals.
func NewPipeline(limiter Limiter, respCache ResponseCache, generator Generator, enricher *Enricher, cfg PipelineConfig, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if cfg.RecipeTTL <= 0 {
		cfg.RecipeTTL = time.Hour
	}
	return &Pipeline{
		limiter:   limiter,
		respCache: respCache,
		generator: generator,
		enricher:  enricher,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// Run executes one request through the state machine and returns its
// terminal result. The request must already be validated and carry an
// identity.
func (p *Pipeline) Run(ctx context.Context, req *types.GenerateRequest) types.PipelineResult {
	start := time.Now()
	requestID := uuid.NewString()
	logger := p.logger.With(zap.String("request_id", requestID))

	req.Normalize()
	p.transition(logger, StateStart)

	// Rate check
	decision := p.limiter.Allow(ctx, req.Identity)
	p.transition(logger, StateRateChecked)
	if !decision.Allowed {
		logger.Info("request rate limited",
			zap.String("identity", req.Identity),
			zap.Int("used", decision.Used),
			zap.Int("limit", decision.Limit))
		return p.finish(start, types.PipelineResult{
			Status:    types.StatusRateLimited,
			RequestID: requestID,
			UsedToday: decision.Used,
			Limit:     decision.Limit,
			ResetsAt:  decision.ResetsAt,
		})
	}

	// Cache check
	digest := Fingerprint(req)
	logger = logger.With(zap.String("digest", digest))
	cacheKey := cache.RecipeKey(digest)
	if p.cfg.CacheEnabled {
		if recipes, ok := p.cachedRecipes(ctx, logger, cacheKey); ok {
			p.transition(logger, StateCacheChecked)
			p.transition(logger, StateDone)
			logger.Info("served from cache", zap.Int("recipes", len(recipes)))
			return p.finish(start, types.PipelineResult{
				Status:    types.StatusDone,
				RequestID: requestID,
				Recipes:   recipes,
				Cached:    true,
			})
		}
	}
	p.transition(logger, StateCacheChecked)

	// Generation
	raw, err := p.generator.GenerateRecipes(ctx, req)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return p.fail(start, logger, requestID, err)
	}
	drafts, err := ExtractRecipes(raw)
	if err != nil {
		logger.Error("generation output unparseable", zap.Error(err))
		return p.fail(start, logger, requestID, err)
	}
	p.transition(logger, StateGenerated)

	// Enrichment
	p.transition(logger, StateEnriching)
	enrichments := p.enricher.Enrich(ctx, drafts)

	// Aggregation
	recipes := make([]types.Recipe, len(drafts))
	for i, draft := range drafts {
		recipes[i] = Aggregate(draft, enrichments[i], req.Servings)
	}
	p.transition(logger, StateAggregated)

	// Cache write; failures inside the tiered cache are its own
	// business and never surface here.
	if p.cfg.CacheEnabled {
		if data, err := json.Marshal(recipes); err == nil {
			p.respCache.Set(ctx, cacheKey, data, p.cfg.RecipeTTL)
		}
	}
	p.transition(logger, StateCached)

	p.transition(logger, StateDone)
	logger.Info("pipeline done",
		zap.Int("recipes", len(recipes)),
		zap.String("source", recipes[0].Nutrition.Source))
	return p.finish(start, types.PipelineResult{
		Status:    types.StatusDone,
		RequestID: requestID,
		Recipes:   recipes,
	})
}

// cachedRecipes loads and decodes a cached response. Undecodable
// entries are evicted and treated as misses.
func (p *Pipeline) cachedRecipes(ctx context.Context, logger *zap.Logger, key string) ([]types.Recipe, bool) {
	data, found := p.respCache.Get(ctx, key)
	if !found {
		return nil, false
	}
	var recipes []types.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil || len(recipes) == 0 {
		logger.Warn("evicting undecodable cached response", zap.String("key", key))
		if deleter, ok := p.respCache.(interface {
			Delete(ctx context.Context, key string)
		}); ok {
			deleter.Delete(ctx, key)
		}
		return nil, false
	}
	return recipes, true
}

func (p *Pipeline) fail(start time.Time, logger *zap.Logger, requestID string, err error) types.PipelineResult {
	p.transition(logger, StateFailed)
	return p.finish(start, types.PipelineResult{
		Status:        types.StatusFailed,
		RequestID:     requestID,
		FailureReason: string(apperr.CodeOf(err)),
		Err:           err,
	})
}

func (p *Pipeline) finish(start time.Time, result types.PipelineResult) types.PipelineResult {
	p.metrics.ObservePipeline(string(result.Status), time.Since(start))
	return result
}

func (p *Pipeline) transition(logger *zap.Logger, state State) {
	p.metrics.PipelineTransitions.WithLabelValues(string(state)).Inc()
	logger.Debug("pipeline state", zap.String("state", string(state)))
}

var _ PipelineRunner = (*Pipeline)(nil)
