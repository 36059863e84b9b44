package cache

import (
	"fmt"

	"github.com/erp/pricing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory creates resolution stores based on configuration
type Factory struct {
	pricing               config.PricingConfig
	redis                 config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(pricing config.PricingConfig, redis config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		pricing:               pricing,
		redis:                 redis,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns nil when caching is disabled, otherwise the configured backend.
// A Redis backend that cannot be reached falls back to memory when allowed.
func (f *Factory) CreateStore() (ResolutionStore, error) {
	if !f.pricing.CacheEnabled {
		return nil, nil
	}
	if f.pricing.CacheBackend != config.CacheBackendRedis {
		f.logger.Info("Using in-memory resolution cache", zap.Duration("ttl", f.pricing.CacheTTL))
		return f.inMemory(), nil
	}

	store, err := NewRedisResolutionCache(RedisConfig{
		Addr:     f.redis.Addr(),
		Password: f.redis.Password,
		DB:       f.redis.DB,
	}, f.pricing.CacheKeyPrefix, f.pricing.CacheTTL)
	if err == nil {
		f.logger.Info("Using Redis resolution cache", zap.String("addr", f.redis.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for resolution cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory resolution cache. "+
		"Instances will not share invalidations.",
		zap.Error(err),
	)
	return f.inMemory(), nil
}

func (f *Factory) inMemory() *InMemoryResolutionCache {
	return NewInMemoryResolutionCache(WithTTL(f.pricing.CacheTTL), WithInMemoryLogger(f.logger))
}
