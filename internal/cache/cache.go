// Package cache implements the two-tier response cache: a local
// in-process TTL map in front of an optional shared Redis. Shared
// failures are logged and swallowed, so callers only ever see a hit,
// a miss, or a successful write.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache tier. Get reports whether the key was
// present; backend failures surface as errors only at this level and
// are absorbed by the tiered composition above.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
