package ttlcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const purgeBatch = 100

// Redis is cache shared between processes. Values are stored as JSON.
// Redis errors are logged and treated as cache misses.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	config
}

// NewRedis returns new Redis cache storing keys under prefix.
func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration, ops ...Option) *Redis[V] {
	return &Redis[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		config: newConfig(ops),
	}
}

// Get returns value of key unless it's missing or expired.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("key", key).Msg("can't get cached value")
		}
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("can't decode cached value")
		return value, false
	}

	return value, true
}

// Set stores value under key.
func (r *Redis[V]) Set(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("can't encode value")
		return
	}

	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("can't cache value")
	}
}

// Purge removes every key under prefix.
func (r *Redis[V]) Purge(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", purgeBatch).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn().Err(err).Msg("can't scan cached keys")
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn().Err(err).Int("keys", len(keys)).Msg("can't purge cached keys")
	}
}
