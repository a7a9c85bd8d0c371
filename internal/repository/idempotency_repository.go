package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "sla-tickets:idempotency:"

// IdempotencyRepository claims request keys so a retried mutation is
// applied once.
type IdempotencyRepository interface {
	// Claim returns false when the key was already claimed within the TTL.
	Claim(ctx context.Context, scope, key string) (bool, error)
	// Release forgets a claim so a failed request can be retried.
	Release(ctx context.Context, scope, key string) error
}

type redisIdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyRepository returns a Redis-backed guard, or one that
// accepts every key when client is nil.
func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) IdempotencyRepository {
	if client == nil {
		return noopIdempotency{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisIdempotencyRepository{client: client, ttl: ttl}
}

func (r *redisIdempotencyRepository) Claim(ctx context.Context, scope, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyKey(scope, key), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
}

func (r *redisIdempotencyRepository) Release(ctx context.Context, scope, key string) error {
	return r.client.Del(ctx, idempotencyKey(scope, key)).Err()
}

func idempotencyKey(scope, key string) string {
	return idempotencyPrefix + scope + ":" + key
}

type noopIdempotency struct{}

func (noopIdempotency) Claim(context.Context, string, string) (bool, error) { return true, nil }

func (noopIdempotency) Release(context.Context, string, string) error { return nil }
