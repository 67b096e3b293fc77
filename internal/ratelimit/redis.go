package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps fixed windows in redis so the limit holds across
// instances. The window is the key's TTL: the first increment sets it, later
// ones ride it out.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Check implements Store
func (s *RedisStore) Check(ctx context.Context, key string, limit Limit) (Result, error) {
	rkey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, rkey).Result()
	if err != nil {
		return Result{}, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, rkey, limit.Window).Err(); err != nil {
			return Result{}, err
		}
	}

	ttl, err := s.client.TTL(ctx, rkey).Result()
	if err != nil {
		return Result{}, err
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. restored from a dump); reinstate it so the
		// window cannot become permanent
		ttl = limit.Window
		if err := s.client.Expire(ctx, rkey, ttl).Err(); err != nil {
			return Result{}, err
		}
	}
	reset := time.Now().Add(ttl)

	if count > int64(limit.Max) {
		return Result{Allowed: false, Remaining: 0, ResetTime: reset}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: limit.Max - int(count),
		ResetTime: reset,
	}, nil
}
