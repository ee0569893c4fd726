package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/mealforge/internal/cache"
	"github.com/pageza/mealforge/internal/metrics"
)

// Decision is a rate-limit verdict with the usage numbers behind it.
type Decision struct {
	Allowed   bool
	Used      int
	Limit     int
	Remaining int
	ResetsAt  time.Time
}

// RateLimiter enforces a per-identity daily request budget. Counters
// live in Redis under rl:<identity>:<utc-date> with a 24h expiry; when
// Redis is unreachable the limiter falls back to a process-local
// counter with the same day-window semantics rather than taking the
// service down.
type RateLimiter struct {
	client  *redis.Client
	limit   int
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	localDay    string
	localCounts map[string]int
}

// NewRateLimiter creates a limiter. A nil client means local-only
// operation from the start.
func NewRateLimiter(client *redis.Client, limit int, logger *zap.Logger, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		client:      client,
		limit:       limit,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
		localCounts: make(map[string]int),
	}
}

// Allow charges one request against the identity's budget and reports
// the verdict. An identity gets exactly limit allowed requests per UTC
// day; the limit+1th is denied.
func (rl *RateLimiter) Allow(ctx context.Context, identity string) Decision {
	day := rl.day()

	if rl.client != nil {
		key := cache.RateLimitKey(identity, day)
		pipe := rl.client.Pipeline()
		incrCmd := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 24*time.Hour)
		_, err := pipe.Exec(ctx)
		if err == nil {
			return rl.decide(int(incrCmd.Val()))
		}
		rl.metrics.RateLimitDecisions.WithLabelValues("degraded").Inc()
		rl.logger.Warn("rate limit store unavailable, using local counter",
			zap.String("identity", identity), zap.Error(err))
	}

	return rl.decide(rl.localIncr(identity, day))
}

// Peek reads the identity's usage without charging a request.
func (rl *RateLimiter) Peek(ctx context.Context, identity string) Decision {
	day := rl.day()

	if rl.client != nil {
		key := cache.RateLimitKey(identity, day)
		used, err := rl.client.Get(ctx, key).Int()
		if err == nil {
			return rl.verdict(used)
		}
		if err == redis.Nil {
			return rl.verdict(0)
		}
		rl.logger.Warn("rate limit store unavailable, reading local counter",
			zap.String("identity", identity), zap.Error(err))
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.localDay != day {
		return rl.verdict(0)
	}
	return rl.verdict(rl.localCounts[identity])
}

// decide turns a post-increment count into a recorded decision.
func (rl *RateLimiter) decide(used int) Decision {
	d := rl.verdict(used)
	if d.Allowed {
		rl.metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	} else {
		rl.metrics.RateLimitDecisions.WithLabelValues("denied").Inc()
	}
	return d
}

func (rl *RateLimiter) verdict(used int) Decision {
	remaining := rl.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   used <= rl.limit,
		Used:      used,
		Limit:     rl.limit,
		Remaining: remaining,
		ResetsAt:  rl.nextMidnight(),
	}
}

func (rl *RateLimiter) localIncr(identity, day string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.localDay != day {
		rl.localDay = day
		rl.localCounts = make(map[string]int)
	}
	rl.localCounts[identity]++
	return rl.localCounts[identity]
}

func (rl *RateLimiter) day() string {
	return rl.now().UTC().Format("2006-01-02")
}

func (rl *RateLimiter) nextMidnight() time.Time {
	t := rl.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

var _ Limiter = (*RateLimiter)(nil)
