package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "pricing:resolution:"

// RedisResolutionCache shares resolutions between instances through Redis.
// The generation counter lives at <prefix>generation; entries are stored at
// <prefix><generation>:<key> and expire on their own.
type RedisResolutionCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisResolutionCache connects to Redis and verifies the connection
func NewRedisResolutionCache(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisResolutionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisResolutionCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisResolutionCacheWithClient creates a cache on an existing client
func NewRedisResolutionCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResolutionCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisResolutionCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisResolutionCache) generationKey() string {
	return c.keyPrefix + "generation"
}

// Generation returns the current generation shared by every client
func (c *RedisResolutionCache) Generation(ctx context.Context) (uint64, error) {
	raw, err := c.client.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache generation %q: %w", raw, err)
	}
	return gen, nil
}

func (c *RedisResolutionCache) entryKey(gen uint64, key string) string {
	return c.keyPrefix + strconv.FormatUint(gen, 10) + ":" + key
}

// Get returns the entry stored under key in the current generation, and that generation
func (c *RedisResolutionCache) Get(ctx context.Context, key string) ([]byte, uint64, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read resolution: %w", err)
	}
	return data, gen, true, nil
}

// SetAt stores value under key in generation. The write is dropped when the
// generation moved on; a write racing Invalidate lands under the superseded
// prefix and is never read.
func (c *RedisResolutionCache) SetAt(ctx context.Context, generation uint64, key string, value []byte) error {
	current, err := c.Generation(ctx)
	if err != nil {
		return err
	}
	if current != generation {
		return nil
	}
	if err := c.client.Set(ctx, c.entryKey(generation, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store resolution: %w", err)
	}
	return nil
}

// Invalidate advances the generation; superseded entries expire by TTL
func (c *RedisResolutionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate resolution cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisResolutionCache) Close() error {
	return c.client.Close()
}

var _ ResolutionStore = (*RedisResolutionCache)(nil)
