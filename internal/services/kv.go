package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KVStore is the slice of the key-value store the dedup ledger and the
// lifecycle store depend on.
type KVStore interface {
	// SetIfAbsent atomically sets the key with a TTL only if it does not
	// exist, reporting whether this call performed the set.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the key with a TTL unconditionally.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisKV implements KVStore over go-redis.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps an existing Redis client
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}
