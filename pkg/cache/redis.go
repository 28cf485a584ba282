// Package cache wraps the Redis client. Ponderdome keeps no content in Redis;
// it holds short-lived auth and throttling state only.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	revokedTokenPrefix = "revoked_token:"
	rateLimitPrefix    = "rate_limit:"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db, poolSize, minIdleConns int) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	return &RedisClient{client: client}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// RevokeToken deny-lists a token id until ttl elapses.
func (r *RedisClient) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisClient) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

// Allow counts one hit against key in a fixed window and reports whether the
// count is still within limit, along with the time left in the window.
func (r *RedisClient) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	fullKey := rateLimitPrefix + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to start window: %w", err)
		}
	}

	ttl, err := r.client.TTL(ctx, fullKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, fmt.Errorf("failed to read window: %w", err)
	}
	if ttl < 0 {
		// The key lost its expiry (or the first Expire raced); restart the window.
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to start window: %w", err)
		}
		ttl = window
	}

	return count <= int64(limit), ttl, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
