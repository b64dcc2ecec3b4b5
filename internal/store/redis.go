package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces Talkify settings inside a shared Redis instance.
const keyPrefix = "talkify:settings:"

// defaultTTL keeps abandoned kiosk settings from accumulating forever.
const defaultTTL = 30 * 24 * time.Hour

// Redis is a [Store] backed by a Redis instance, for deployments where
// several kiosk terminals share one settings namespace.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// Compile-time interface assertion.
var _ Store = (*Redis)(nil)

// NewRedis creates a Redis-backed store. ttl bounds how long a key survives
// without being rewritten; values <= 0 use a 30-day default.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get implements [Store].
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements [Store].
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements [Store].
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("store: redis del %s: %w", key, err)
	}
	return nil
}

// Close implements [Store].
func (r *Redis) Close() error {
	return r.client.Close()
}
