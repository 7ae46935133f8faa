package keylock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// heldKey marks in a context that the call chain holds key on q.
type heldKey struct {
	q   *Queue
	key string
}

// Option configures a Queue.
type Option func(*Queue)

// WithTimeout bounds how long Run waits for a key.
// Non-positive values are ignored: the wait is never unbounded.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// Queue runs units of work exclusively per key.
type Queue struct {
	locker  Locker
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Queue on top of locker.
func New(locker Locker, opts ...Option) *Queue {
	q := &Queue{
		locker:  locker,
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Timeout returns the maximum wait for a key.
func (q *Queue) Timeout() time.Duration {
	return q.timeout
}

// Held reports whether ctx belongs to a call chain holding key on q.
func (q *Queue) Held(ctx context.Context, key string) bool {
	return ctx.Value(heldKey{q: q, key: key}) != nil
}

// Run executes fn while holding key. The key is released when fn returns,
// panics included. fn receives a context that lets nested Run calls for the
// same key proceed without waiting.
//
// The wait ends at the queue timeout or the caller's deadline, whichever
// comes first, with ErrLockTimeout. A cancelled caller gets ErrLockAborted.
// The current holder is never interrupted.
func (q *Queue) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	if q.Held(ctx, key) {
		return fn(ctx)
	}

	started := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, q.timeout)
	unlock, err := q.locker.Lock(waitCtx, key)
	cancel()
	if err != nil {
		return q.waitError(ctx, key, started, err)
	}
	defer unlock()

	if waited := time.Since(started); waited > q.timeout/2 {
		q.logger.WarnContext(ctx, "slow mutation lock acquisition",
			logger.SessionKey(key),
			logger.Waited(waited),
		)
	}

	return fn(context.WithValue(ctx, heldKey{q: q, key: key}, struct{}{}))
}

func (q *Queue) waitError(ctx context.Context, key string, started time.Time, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		q.logger.WarnContext(ctx, "mutation lock wait timed out",
			logger.SessionKey(key),
			logger.Waited(time.Since(started)),
		)
		return errors.Join(ErrLockTimeout, err)
	case errors.Is(err, context.Canceled):
		return errors.Join(ErrLockAborted, err)
	default:
		return err
	}
}

// Do is Run for units of work that produce a value.
func Do[T any](ctx context.Context, q *Queue, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := q.Run(ctx, key, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
