package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/apperr"
	"github.com/pageza/mealforge/internal/metrics"
)

// TieredCache reads local-first and falls through to the shared tier,
// repopulating local on a shared hit. Its API has no error returns:
// shared-tier failures are logged as cache backend errors and treated
// as misses or skipped writes.
type TieredCache struct {
	local    *LocalCache
	shared   Store
	localTTL time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewTieredCache composes the tiers. A nil shared store means the
// cache runs local-only.
func NewTieredCache(local *LocalCache, shared Store, localTTL time.Duration, logger *zap.Logger, m *metrics.Metrics) *TieredCache {
	return &TieredCache{
		local:    local,
		shared:   shared,
		localTTL: localTTL,
		logger:   logger,
		metrics:  m,
	}
}

// Get returns the cached value and whether it was found.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if data, found, _ := c.local.Get(ctx, key); found {
		c.metrics.CacheOperations.WithLabelValues("local", "get", "hit").Inc()
		return data, true
	}
	c.metrics.CacheOperations.WithLabelValues("local", "get", "miss").Inc()

	if c.shared == nil {
		return nil, false
	}

	data, found, err := c.shared.Get(ctx, key)
	if err != nil {
		c.metrics.CacheOperations.WithLabelValues("shared", "get", "error").Inc()
		c.logger.Warn("shared cache read failed",
			zap.String("key", key),
			zap.Error(apperr.NewCacheBackend("get", err)))
		return nil, false
	}
	if !found {
		c.metrics.CacheOperations.WithLabelValues("shared", "get", "miss").Inc()
		return nil, false
	}

	c.metrics.CacheOperations.WithLabelValues("shared", "get", "hit").Inc()

	// Keep the hot entry close for the next request.
	_ = c.local.Set(ctx, key, data, c.localTTL)

	return data, true
}

// Set writes to the local tier and then the shared tier. The local
// copy lives at most localTTL so shared invalidations converge.
func (c *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	localTTL := ttl
	if c.localTTL < localTTL {
		localTTL = c.localTTL
	}
	_ = c.local.Set(ctx, key, value, localTTL)
	c.metrics.CacheOperations.WithLabelValues("local", "set", "ok").Inc()

	if c.shared == nil {
		return
	}
	if err := c.shared.Set(ctx, key, value, ttl); err != nil {
		c.metrics.CacheOperations.WithLabelValues("shared", "set", "error").Inc()
		c.logger.Warn("shared cache write failed",
			zap.String("key", key),
			zap.Error(apperr.NewCacheBackend("set", err)))
		return
	}
	c.metrics.CacheOperations.WithLabelValues("shared", "set", "ok").Inc()
}

// Delete removes the key from both tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	_ = c.local.Delete(ctx, key)
	if c.shared == nil {
		return
	}
	if err := c.shared.Delete(ctx, key); err != nil {
		c.logger.Warn("shared cache delete failed",
			zap.String("key", key),
			zap.Error(apperr.NewCacheBackend("delete", err)))
	}
}
