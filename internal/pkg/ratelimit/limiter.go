package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
)

// Fingerprint combines the category identifier with client attributes and
// hashes the result so raw phone numbers and user agents never become cache
// keys.
func Fingerprint(identifier, ip, userAgent string) string {
	sum := sha256.Sum256([]byte(identifier + "|" + ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// Result of a single quota check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Info is the administrative snapshot for one key.
type Info struct {
	Remaining  int
	Max        int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	cfg   config.RateLimitConfig
	clock clock.Clock
}

func NewLimiter(store Store, cfg config.RateLimitConfig, c clock.Clock) *Limiter {
	return &Limiter{
		store: store,
		cfg:   cfg,
		clock: c,
	}
}

// Hit consumes one attempt and reports whether the caller is still under
// quota. The increment happens first and the decision reads its return value,
// so two requests racing at the boundary cannot both slip under the limit.
// Remaining is accounted after the increment: ten prior hits against a limit
// of sixty leaves forty-nine.
func (l *Limiter) Hit(ctx context.Context, category Category, key string) (Result, error) {
	quota := category.Quota(l.cfg)

	newCount, ttl, err := l.store.Increment(ctx, key, quota.Decay)
	if err != nil {
		return Result{}, err
	}

	if newCount > int64(quota.MaxAttempts) {
		return Result{
			Allowed:    false,
			Limit:      quota.MaxAttempts,
			Remaining:  0,
			ResetAt:    l.clock.Now().Add(ttl),
			RetryAfter: ttl,
		}, nil
	}

	remaining := quota.MaxAttempts - int(newCount)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   true,
		Limit:     quota.MaxAttempts,
		Remaining: remaining,
		ResetAt:   l.clock.Now().Add(ttl),
	}, nil
}

// Remaining reports the attempts left for a key without consuming one.
func (l *Limiter) Remaining(ctx context.Context, category Category, key string) (int, error) {
	quota := category.Quota(l.cfg)

	count, _, err := l.store.Count(ctx, key)
	if err != nil {
		return 0, err
	}

	remaining := quota.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Clear resets a key's counter (administrative unblock).
func (l *Limiter) Clear(ctx context.Context, key string) error {
	return l.store.Clear(ctx, key)
}

func (l *Limiter) Info(ctx context.Context, category Category, key string) (Info, error) {
	quota := category.Quota(l.cfg)

	count, ttl, err := l.store.Count(ctx, key)
	if err != nil {
		return Info{}, err
	}

	remaining := quota.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Info{
		Remaining:  remaining,
		Max:        quota.MaxAttempts,
		ResetAt:    l.clock.Now().Add(ttl),
		RetryAfter: ttl,
	}, nil
}
