//go:build unit

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"amenpay/internal/pkg/clock"
	"amenpay/internal/pkg/config"
	"amenpay/internal/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (*ratelimit.Limiter, *clock.MockClock) {
	t.Helper()
	mc := clock.NewMockClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	store := ratelimit.NewMemoryStore(mc)
	return ratelimit.NewLimiter(store, config.NewTestConfig().RateLimit, mc), mc
}

func TestHitBoundary(t *testing.T) {
	// auth quota is 5 attempts per 15 minutes
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	key := ratelimit.Fingerprint("10.0.0.1", "10.0.0.1", "test-agent")

	for i := 1; i <= 5; i++ {
		res, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d should pass", i)
		assert.Equal(t, 5, res.Limit)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestWindowReset(t *testing.T) {
	limiter, mc := newLimiter(t)
	ctx := context.Background()
	key := ratelimit.Fingerprint("10.0.0.2", "10.0.0.2", "test-agent")

	for i := 0; i < 5; i++ {
		_, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
		require.NoError(t, err)
	}
	res, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// decay window elapses, counter resets to zero
	mc.Advance(15*time.Minute + time.Second)

	res, err = limiter.Hit(ctx, ratelimit.CategoryAuth, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestRemainingAccounting(t *testing.T) {
	// 10 prior hits against api's limit of 60 leaves 49 after the next hit
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	key := ratelimit.Fingerprint("7", "10.0.0.3", "test-agent")

	for i := 0; i < 10; i++ {
		_, err := limiter.Hit(ctx, ratelimit.CategoryAPI, key)
		require.NoError(t, err)
	}

	res, err := limiter.Hit(ctx, ratelimit.CategoryAPI, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 60, res.Limit)
	assert.Equal(t, 49, res.Remaining)
}

// staleCountStore always reports an empty bucket from Count, the way a
// concurrent reader would mid-race. Only Increment tells the truth.
type staleCountStore struct {
	inner *ratelimit.MemoryStore
}

func (s staleCountStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return s.inner.Increment(ctx, key, window)
}

func (s staleCountStore) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	return 0, 0, nil
}

func (s staleCountStore) Clear(ctx context.Context, key string) error {
	return s.inner.Clear(ctx, key)
}

func TestHitDecidesOnAtomicIncrement(t *testing.T) {
	// A stale pre-read must not let requests past the quota; the decision
	// has to come from the counter value Increment returns.
	mc := clock.NewMockClock(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	store := staleCountStore{inner: ratelimit.NewMemoryStore(mc)}
	limiter := ratelimit.NewLimiter(store, config.NewTestConfig().RateLimit, mc)
	ctx := context.Background()
	key := ratelimit.Fingerprint("10.0.0.9", "10.0.0.9", "test-agent")

	for i := 1; i <= 5; i++ {
		res, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
		require.NoError(t, err)
		require.True(t, res.Allowed, "attempt %d should pass", i)
	}

	res, err := limiter.Hit(ctx, ratelimit.CategoryAuth, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestClear(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	key := ratelimit.Fingerprint("phone:+966500000001", "10.0.0.4", "test-agent")

	for i := 0; i < 3; i++ {
		_, err := limiter.Hit(ctx, ratelimit.CategoryOTP, key)
		require.NoError(t, err)
	}
	res, err := limiter.Hit(ctx, ratelimit.CategoryOTP, key)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	require.NoError(t, limiter.Clear(ctx, key))

	res, err = limiter.Hit(ctx, ratelimit.CategoryOTP, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestInfo(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()
	key := ratelimit.Fingerprint("3", "10.0.0.5", "test-agent")

	info, err := limiter.Info(ctx, ratelimit.CategoryPayment, key)
	require.NoError(t, err)
	assert.Equal(t, 10, info.Max)
	assert.Equal(t, 10, info.Remaining)

	_, err = limiter.Hit(ctx, ratelimit.CategoryPayment, key)
	require.NoError(t, err)

	info, err = limiter.Info(ctx, ratelimit.CategoryPayment, key)
	require.NoError(t, err)
	assert.Equal(t, 9, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestParseCategory(t *testing.T) {
	cases := map[string]ratelimit.Category{
		"auth":        ratelimit.CategoryAuth,
		"otp":         ratelimit.CategoryOTP,
		"payment":     ratelimit.CategoryPayment,
		"api":         ratelimit.CategoryAPI,
		"sms":         ratelimit.CategorySMS,
		"file_upload": ratelimit.CategoryFileUpload,
		"default":     ratelimit.CategoryDefault,
		"bogus":       ratelimit.CategoryDefault,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ratelimit.ParseCategory(input), input)
		if input != "bogus" {
			assert.Equal(t, input, expected.String())
		}
	}
}

func TestFingerprintStability(t *testing.T) {
	a := ratelimit.Fingerprint("id", "1.2.3.4", "ua")
	b := ratelimit.Fingerprint("id", "1.2.3.4", "ua")
	c := ratelimit.Fingerprint("id", "1.2.3.5", "ua")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
