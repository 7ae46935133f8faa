package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/pkg/cache"
)

// ReplayGuard remembers consumed nonces.
type ReplayGuard interface {
	// Consume records key for ttl and reports whether it was unseen.
	Consume(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryReplayGuard keeps consumed nonces in a bounded LRU.
// When more than capacity nonces are live, the oldest can be replayed again;
// size the capacity for the expected transfers per two ticks.
type MemoryReplayGuard struct {
	seen *cache.LRU[string, struct{}]
}

// NewMemoryReplayGuard creates a guard remembering at most capacity nonces.
func NewMemoryReplayGuard(capacity int, opts ...cache.Option) *MemoryReplayGuard {
	return &MemoryReplayGuard{seen: cache.NewLRU[string, struct{}](capacity, opts...)}
}

func (g *MemoryReplayGuard) Consume(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return g.seen.Add(key, struct{}{}, ttl), nil
}

const defaultReplayPrefix = "storefront:transfer:"

// RedisReplayGuard shares consumed nonces between processes with SET NX.
type RedisReplayGuard struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisReplayGuard creates a Redis-backed guard. An empty prefix keeps the default.
func NewRedisReplayGuard(client redis.UniversalClient, prefix string) *RedisReplayGuard {
	if prefix == "" {
		prefix = defaultReplayPrefix
	}
	return &RedisReplayGuard{client: client, prefix: prefix}
}

func (g *RedisReplayGuard) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, errors.Join(ErrGuardUnavailable, err)
	}
	return ok, nil
}
