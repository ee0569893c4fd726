package cache

import (
	"context"
	"sync"
	"time"
)

type localItem struct {
	data      []byte
	expiresAt time.Time
}

// LocalCache is a thread-safe in-memory TTL cache. Expired entries are
// dropped lazily on read and swept periodically when a janitor
// interval is given.
type LocalCache struct {
	mu    sync.RWMutex
	items map[string]localItem

	stop chan struct{}
	once sync.Once
}

// NewLocalCache creates a local cache. A positive janitorInterval
// starts a background sweep; zero disables it, which is what tests
// want.
func NewLocalCache(janitorInterval time.Duration) *LocalCache {
	lc := &LocalCache{
		items: make(map[string]localItem),
		stop:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go lc.janitor(janitorInterval)
	}
	return lc
}

// Get retrieves a value. Expired entries count as misses and are
// removed.
func (lc *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	lc.mu.RLock()
	item, exists := lc.items[key]
	lc.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}
	if time.Now().After(item.expiresAt) {
		lc.mu.Lock()
		// Re-check under the write lock: another goroutine may have
		// replaced the entry since the read.
		if current, ok := lc.items[key]; ok && time.Now().After(current.expiresAt) {
			delete(lc.items, key)
		}
		lc.mu.Unlock()
		return nil, false, nil
	}
	return item.data, true, nil
}

// Set stores a value until its TTL lapses. Non-positive TTLs are
// ignored.
func (lc *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	lc.mu.Lock()
	lc.items[key] = localItem{data: value, expiresAt: time.Now().Add(ttl)}
	lc.mu.Unlock()
	return nil
}

// Delete removes a key.
func (lc *LocalCache) Delete(_ context.Context, key string) error {
	lc.mu.Lock()
	delete(lc.items, key)
	lc.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (lc *LocalCache) Len() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.items)
}

// Close stops the janitor. Safe to call more than once.
func (lc *LocalCache) Close() {
	lc.once.Do(func() { close(lc.stop) })
}

func (lc *LocalCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			lc.sweep()
		case <-lc.stop:
			return
		}
	}
}

func (lc *LocalCache) sweep() {
	now := time.Now()
	lc.mu.Lock()
	for key, item := range lc.items {
		if now.After(item.expiresAt) {
			delete(lc.items, key)
		}
	}
	lc.mu.Unlock()
}

var _ Store = (*LocalCache)(nil)
