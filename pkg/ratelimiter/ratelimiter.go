package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Limits is the shape of a token bucket.
type Limits struct {
	Capacity       int           // burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // how often tokens are added
}

func (l Limits) validate() error {
	if l.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, l.Capacity)
	}
	if l.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, l.RefillRate)
	}
	if l.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, l.RefillInterval)
	}
	return nil
}

// refillTime is how long an empty bucket takes to fill up again. Stores may
// forget a bucket after it.
func (l Limits) refillTime() time.Duration {
	steps := (l.Capacity + l.RefillRate - 1) / l.RefillRate
	return time.Duration(steps) * l.RefillInterval
}

// State is what a store reports after a take.
type State struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time // next refill
}

// Store keeps bucket state. Take must refill and consume atomically, and
// must not consume anything when fewer than n tokens are left.
type Store interface {
	Take(ctx context.Context, key string, n int, limits Limits) (State, error)
	Reset(ctx context.Context, key string) error
}

// Result of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

// Bucket is a token bucket rate limiter over a Store.
type Bucket struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// BucketOption configures a Bucket.
type BucketOption func(*Bucket)

// WithClock overrides the time source used for RetryAfter.
func WithClock(now func() time.Time) BucketOption {
	return func(b *Bucket) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBucket creates a token bucket rate limiter.
func NewBucket(store Store, limits Limits, opts ...BucketOption) (*Bucket, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}

	b := &Bucket{store: store, limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return b.AllowN(ctx, key, 1)
}

func (b *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 || n > b.limits.Capacity {
		return nil, fmt.Errorf("%w: must be within 1..%d, got %d", ErrInvalidTokenCount, b.limits.Capacity, n)
	}

	st, err := b.store.Take(ctx, key, n, b.limits)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Allowed:   st.Allowed,
		Limit:     b.limits.Capacity,
		Remaining: st.Remaining,
		ResetAt:   st.ResetAt,
	}
	if !st.Allowed {
		res.RetryAfter = max(st.ResetAt.Sub(b.now()), 0)
	}
	return res, nil
}

func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
