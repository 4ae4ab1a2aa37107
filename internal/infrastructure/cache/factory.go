package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store is what the application needs from an idempotency backend: event
// deduplication for handlers and key binding for client retries
type Store interface {
	shared.IdempotencyStore
	shared.IdempotencyKeyStore
}

// StoreFactory picks the idempotency backend from configuration
type StoreFactory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// StoreFactoryOption configures a StoreFactory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory store. Default true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore connects to Redis and fails if it does not answer PING
func (f *StoreFactory) CreateRedisStore(ctx context.Context) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.cfg.Addr(),
		Password: f.cfg.Password,
		DB:       f.cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", f.cfg.Addr(), err)
	}
	return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
}

// CreateStore returns the Redis store when a host is configured and the
// in-memory store otherwise, or when Redis is down and fallback is allowed
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, error) {
	if f.cfg.Host == "" {
		f.logger.Info("redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(0), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using redis idempotency store", zap.String("addr", f.cfg.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, err
	}
	f.logger.Warn("redis unavailable, falling back to in-memory idempotency store; "+
		"retries hitting another instance will not be deduplicated",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(0), nil
}
