package ratelimiter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var limits = ratelimiter.Limits{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

func stores(t *testing.T, c *clock) map[string]ratelimiter.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ratelimiter.Store{
		"memory": ratelimiter.NewMemoryStore(100, ratelimiter.WithMemoryClock(c.Now)),
		"redis":  ratelimiter.NewRedisStore(client, ratelimiter.WithRedisPrefix("test:"), ratelimiter.WithRedisClock(c.Now)),
	}
}

func TestBucket(t *testing.T) {
	t.Parallel()

	c := newClock()
	for name, store := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			b, err := ratelimiter.NewBucket(store, limits, ratelimiter.WithClock(c.Now))
			require.NoError(t, err)
			key := "client-" + name

			for i := range 3 {
				res, err := b.Allow(ctx, key)
				require.NoError(t, err)
				assert.True(t, res.Allowed)
				assert.Equal(t, 2-i, res.Remaining)
				assert.Equal(t, 3, res.Limit)
				assert.Zero(t, res.RetryAfter)
			}

			// Denials do not dig the bucket deeper.
			for range 3 {
				res, err := b.Allow(ctx, key)
				require.NoError(t, err)
				assert.False(t, res.Allowed)
				assert.Equal(t, 0, res.Remaining)
				assert.Equal(t, time.Second, res.RetryAfter)
			}

			res, err := b.Allow(ctx, "other-"+name)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "buckets are per key")

			c.Advance(time.Second)
			res, err = b.Allow(ctx, key)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 0, res.Remaining)

			require.NoError(t, b.Reset(ctx, key))
			res, err = b.Allow(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining)
		})
	}
}

func TestBucket_RefillCapped(t *testing.T) {
	t.Parallel()

	c := newClock()
	for name, store := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			b, err := ratelimiter.NewBucket(store, limits, ratelimiter.WithClock(c.Now))
			require.NoError(t, err)

			res, err := b.AllowN(ctx, "k", 3)
			require.NoError(t, err)
			require.True(t, res.Allowed)

			c.Advance(500 * time.Millisecond)
			res, err = b.Allow(ctx, "k")
			require.NoError(t, err)
			assert.False(t, res.Allowed)
			assert.Equal(t, 500*time.Millisecond, res.RetryAfter)

			c.Advance(time.Hour)
			res, err = b.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2, res.Remaining)
		})
	}
}

func TestNewBucket_InvalidLimits(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(10)
	for _, l := range []ratelimiter.Limits{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(store, l)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucket_InvalidTokenCount(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(10), limits)
	require.NoError(t, err)

	_, err = b.AllowN(t.Context(), "k", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	_, err = b.AllowN(t.Context(), "k", 4)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestMemoryStore_Bounded(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(2)
	b, err := ratelimiter.NewBucket(store, limits)
	require.NoError(t, err)

	for _, key := range []string{"a", "b", "c"} {
		_, err := b.Allow(t.Context(), key)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_ConcurrentTakes(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(10), ratelimiter.Limits{
		Capacity:       10,
		RefillRate:     1,
		RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(t.Context(), "shared")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client), limits)
	require.NoError(t, err)

	_, err = b.Allow(t.Context(), "k")
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}
