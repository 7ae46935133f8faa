package keylock

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

const (
	defaultLease       = 30 * time.Second
	defaultRedisPrefix = "storefront:lock:"
	minRetryDelay      = 5 * time.Millisecond
	maxRetryDelay      = 250 * time.Millisecond
	releaseTimeout     = 2 * time.Second
)

var (
	// Deletes the key only if it still holds our token.
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	// Extends the lease only if it still holds our token.
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker is a Locker shared by every process talking to the same Redis.
//
// The key is held under a lease that a watchdog renews at a third of its
// length for as long as the holder runs; a crashed holder loses the key when
// the lease runs out.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	lease  time.Duration
	logger *slog.Logger
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

func WithLease(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.lease = d
		}
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker creates a RedisLocker.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		prefix: defaultRedisPrefix,
		lease:  defaultLease,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRedisLockerFromConfig creates a RedisLocker using the redis fields of cfg.
func NewRedisLockerFromConfig(client redis.UniversalClient, cfg Config, opts ...RedisOption) *RedisLocker {
	configOpts := make([]RedisOption, 0, 2)
	if cfg.RedisPrefix != "" {
		configOpts = append(configOpts, WithPrefix(cfg.RedisPrefix))
	}
	if cfg.Lease > 0 {
		configOpts = append(configOpts, WithLease(cfg.Lease))
	}
	return NewRedisLocker(client, append(configOpts, opts...)...)
}

// Lock polls with capped exponential backoff until the key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	owner := uuid.NewString()
	delay := minRetryDelay

	for {
		ok, err := l.client.SetNX(ctx, redisKey, owner, l.lease).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errors.Join(ErrLockerUnavailable, err)
		}
		if ok {
			return l.hold(key, redisKey, owner), nil
		}

		wait := delay/2 + rand.N(delay/2+1)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}

func (l *RedisLocker) hold(key, redisKey, owner string) Unlock {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.renew(key, redisKey, owner, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()

			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, owner).Err(); err != nil {
				l.logger.Warn("failed to release lock, lease will expire",
					logger.SessionKey(key),
					logger.Error(err),
				)
			}
		})
	}
}

func (l *RedisLocker) renew(key, redisKey, owner string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.lease / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.lease/3)
			n, err := renewScript.Run(ctx, l.client, []string{redisKey}, owner, l.lease.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.Warn("failed to renew lock lease", logger.SessionKey(key), logger.Error(err))
				continue
			}
			if n == 0 {
				l.logger.Error("lock lease lost while held", logger.SessionKey(key))
				return
			}
		}
	}
}
