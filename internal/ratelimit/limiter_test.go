package ratelimit

import (
	"context"
	"testing"
	"time"

	"card-service/pkg/config"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(clock *fakeClock) (*Limiter, *MemoryStore) {
	store := NewMemoryStore(clock.now, 0) // no sweeper in tests
	limiter := New(store, &config.RateLimitConfig{
		AuthMax:    5,
		AuthWindow: 15 * time.Minute,
		APIMax:     100,
		APIWindow:  time.Minute,
	})
	return limiter, store
}

func TestAuthClassDeniesSixthAttempt(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := limiter.Check(ctx, ClassAuth, "maria@cfm.co.mz")
		require.NoError(t, err)
		require.True(t, res.Allowed, "attempt %d should be allowed", i+1)
		require.Equal(t, 4-i, res.Remaining)
	}

	res, err := limiter.Check(ctx, ClassAuth, "maria@cfm.co.mz")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
	require.Equal(t, clock.t.Add(15*time.Minute), res.ResetTime)
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.Check(ctx, ClassAuth, "maria@cfm.co.mz")
	}

	clock.advance(15*time.Minute + time.Second)

	res, err := limiter.Check(ctx, ClassAuth, "maria@cfm.co.mz")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 4, res.Remaining)
}

func TestDenialDoesNotExtendWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	windowStart := clock.t
	for i := 0; i < 5; i++ {
		limiter.Check(ctx, ClassAuth, "x")
	}

	// Hammering a denied key must not push the reset time out
	clock.advance(10 * time.Minute)
	res, err := limiter.Check(ctx, ClassAuth, "x")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, windowStart.Add(15*time.Minute), res.ResetTime)
}

func TestClassesAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.Check(ctx, ClassAuth, "maria@cfm.co.mz")
	}

	// The same identifier under the api class has its own window
	res, err := limiter.Check(ctx, ClassAPI, "maria@cfm.co.mz")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestIdentifiersAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		limiter.Check(ctx, ClassAuth, "a@cfm.com")
	}

	res, err := limiter.Check(ctx, ClassAuth, "b@cfm.com")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestUnknownClassRejected(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, _ := newTestLimiter(clock)

	_, err := limiter.Check(context.Background(), Class("bogus"), "x")
	require.Error(t, err)
}

func TestEvictExpired(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	limiter, store := newTestLimiter(clock)
	ctx := context.Background()

	limiter.Check(ctx, ClassAuth, "a")
	limiter.Check(ctx, ClassAPI, "b")
	require.Len(t, store.entries, 2)

	// api window (1m) expires, auth window (15m) survives
	clock.advance(2 * time.Minute)
	store.evictExpired()
	require.Len(t, store.entries, 1)

	clock.advance(20 * time.Minute)
	store.evictExpired()
	require.Empty(t, store.entries)
}
