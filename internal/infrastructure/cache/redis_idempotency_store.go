package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trainhub/backend/internal/domain/shared"
)

// DefaultKeyPrefix namespaces every key the store writes
const DefaultKeyPrefix = "trainhub:idempotency:"

// RedisIdempotencyStore shares processed event IDs and client idempotency
// keys between instances. Claims use SET NX so that exactly one caller wins.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore wraps an existing client. An empty prefix falls
// back to DefaultKeyPrefix.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed records eventID and reports whether it was new
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+processedKey(eventID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}
	return ok, nil
}

// IsProcessed reports whether eventID was marked and has not expired
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+processedKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check event processed: %w", err)
	}
	return n > 0, nil
}

// Claim binds key to value unless it is already bound, in which case the
// existing value is returned with false
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	full := s.keyPrefix + key
	ok, err := s.client.SetNX(ctx, full, value, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return value, true, nil
	}
	existing, err := s.client.Get(ctx, full).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more
		return s.claimOnce(ctx, full, value, ttl)
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	return existing, false, nil
}

func (s *RedisIdempotencyStore) claimOnce(ctx context.Context, full, value string, ttl time.Duration) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, full, value, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !ok {
		return "", false, shared.NewDomainError(shared.CodeConcurrency, "Idempotency key is contended, retry later")
	}
	return value, true, nil
}

// Release drops key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var (
	_ shared.IdempotencyStore    = (*RedisIdempotencyStore)(nil)
	_ shared.IdempotencyKeyStore = (*RedisIdempotencyStore)(nil)
)
