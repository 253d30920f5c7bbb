package ratelimit

import (
	"context"
	"time"

	"amenpay/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "amenpay:rate_limit:"

// RedisStore backs the fixed-window counter with atomic INCR + EXPIRE so
// concurrent workers across processes share one quota.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	full := keyPrefix + key

	count, err := s.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, 0, errs.Wrap(err, "rate limit increment failed")
	}

	// First hit of the bucket opens the decay window.
	if count == 1 {
		if err := s.client.Expire(ctx, full, window).Err(); err != nil {
			return count, window, errs.Wrap(err, "rate limit expire failed")
		}
		return count, window, nil
	}

	ttl, err := s.client.TTL(ctx, full).Result()
	if err != nil {
		return count, 0, errs.Wrap(err, "rate limit ttl lookup failed")
	}
	if ttl < 0 {
		// Counter lost its expiry (e.g. a failed EXPIRE earlier); reattach
		// rather than letting the bucket live forever.
		if err := s.client.Expire(ctx, full, window).Err(); err != nil {
			return count, window, errs.Wrap(err, "rate limit expire failed")
		}
		ttl = window
	}
	return count, ttl, nil
}

func (s *RedisStore) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	full := keyPrefix + key

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, full)
	ttlCmd := pipe.TTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, errs.Wrap(err, "rate limit count failed")
	}

	count, err := getCmd.Int64()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, errs.Wrap(err, "rate limit count failed")
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errs.Wrap(err, "rate limit clear failed")
	}
	return nil
}
