package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultTTL             = 5 * time.Minute
)

// cacheEntry wraps a cached value with its generation and expiration time
type cacheEntry struct {
	value      []byte
	generation uint64
	expiresAt  time.Time
}

// InMemoryResolutionCache keeps resolutions in process memory.
// It suits single-instance deployments and the CLI.
type InMemoryResolutionCache struct {
	entries    sync.Map // map[string]*cacheEntry
	generation atomic.Uint64
	ttl        time.Duration
	now        func() time.Time
	logger     *zap.Logger
	stopCh     chan struct{}
	stopped    atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

// InMemoryOption is a functional option for configuring the cache
type InMemoryOption func(*InMemoryResolutionCache)

// WithTTL sets how long an entry stays readable; zero keeps the default
func WithTTL(ttl time.Duration) InMemoryOption {
	return func(c *InMemoryResolutionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOption {
	return func(c *InMemoryResolutionCache) {
		c.logger = logger
	}
}

// withNow replaces the clock used for expiry
func withNow(now func() time.Time) InMemoryOption {
	return func(c *InMemoryResolutionCache) {
		c.now = now
	}
}

// NewInMemoryResolutionCache creates a cache and starts its cleanup loop.
// Call Close to stop the loop.
func NewInMemoryResolutionCache(opts ...InMemoryOption) *InMemoryResolutionCache {
	c := &InMemoryResolutionCache{
		ttl:    defaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Generation returns the current generation
func (c *InMemoryResolutionCache) Generation(ctx context.Context) (uint64, error) {
	return c.generation.Load(), nil
}

// Get returns the entry stored under key in the current generation, and that generation
func (c *InMemoryResolutionCache) Get(ctx context.Context, key string) ([]byte, uint64, bool, error) {
	gen := c.generation.Load()
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if entry.generation == gen && c.now().Before(entry.expiresAt) {
			c.hits.Add(1)
			return entry.value, gen, true, nil
		}
		c.entries.Delete(key)
	}
	c.misses.Add(1)
	return nil, gen, false, nil
}

// SetAt stores value under key in generation. The write is dropped when the
// cache was invalidated after generation was read.
func (c *InMemoryResolutionCache) SetAt(ctx context.Context, generation uint64, key string, value []byte) error {
	if generation != c.generation.Load() {
		c.logger.Debug("Dropped resolution computed before invalidation",
			zap.String("key", key), zap.Uint64("generation", generation))
		return nil
	}
	// an Invalidate racing this store leaves an entry of the old generation, which Get rejects
	c.entries.Store(key, &cacheEntry{
		value:      append([]byte(nil), value...),
		generation: generation,
		expiresAt:  c.now().Add(c.ttl),
	})
	return nil
}

// Invalidate makes every stored entry unreadable
func (c *InMemoryResolutionCache) Invalidate(ctx context.Context) error {
	gen := c.generation.Add(1)
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
	c.logger.Debug("Resolution cache invalidated", zap.Uint64("generation", gen))
	return nil
}

// Close stops the cleanup loop
func (c *InMemoryResolutionCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryResolutionCache) GetStats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Count returns the number of stored entries, expired ones included
func (c *InMemoryResolutionCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryResolutionCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

func (c *InMemoryResolutionCache) doCleanup() {
	removed := 0
	now := c.now()
	gen := c.generation.Load()
	c.entries.Range(func(key, value any) bool {
		entry := value.(*cacheEntry)
		if entry.generation != gen || !now.Before(entry.expiresAt) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired resolution cache entries", zap.Int("removed", removed))
	}
}

var _ ResolutionStore = (*InMemoryResolutionCache)(nil)
