package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/storefront/pkg/cache"
)

type bucketState struct {
	tokens   int
	refilled time.Time
}

// MemoryStore keeps buckets in a bounded LRU. A bucket pushed out by capacity
// starts over full, which only ever errs on the side of allowing.
type MemoryStore struct {
	mu      sync.Mutex
	buckets *cache.LRU[string, bucketState]
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a store tracking at most maxKeys buckets.
func NewMemoryStore(maxKeys int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.buckets = cache.NewLRU[string, bucketState](maxKeys, cache.WithClock(s.now))
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, limits Limits) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.buckets.Get(key)
	if !ok {
		st = bucketState{tokens: limits.Capacity, refilled: now}
	}

	if steps := int(now.Sub(st.refilled) / limits.RefillInterval); steps > 0 {
		st.tokens = min(limits.Capacity, st.tokens+steps*limits.RefillRate)
		st.refilled = st.refilled.Add(time.Duration(steps) * limits.RefillInterval)
	}

	allowed := st.tokens >= n
	if allowed {
		st.tokens -= n
	}
	s.buckets.Set(key, st, limits.refillTime())

	return State{
		Allowed:   allowed,
		Remaining: st.tokens,
		ResetAt:   st.refilled.Add(limits.RefillInterval),
	}, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.buckets.Remove(key)
	return nil
}

// Len returns the number of tracked buckets.
func (s *MemoryStore) Len() int {
	return s.buckets.Len()
}
