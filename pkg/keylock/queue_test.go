package keylock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/keylock"
)

func TestQueue_MutualExclusion(t *testing.T) {
	t.Parallel()
	locker := keylock.NewMemoryLocker()
	q := keylock.New(locker, keylock.WithTimeout(10*time.Second))

	const workers = 64
	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		total   int // guarded by the queue itself
		wg      sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Run(context.Background(), "session-1", func(ctx context.Context) error {
				n := active.Add(1)
				for {
					m := maxSeen.Load()
					if n <= m || maxSeen.CompareAndSwap(m, n) {
						break
					}
				}
				v := total
				time.Sleep(100 * time.Microsecond)
				total = v + 1
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load(), "two holders ran at the same time")
	assert.Equal(t, workers, total, "lost update")
	assert.Equal(t, 0, locker.Len(), "idle entries must be collected")
}

func TestQueue_IndependentKeys(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(5*time.Second))

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), "slow", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	started := time.Now()
	err := q.Run(context.Background(), "fast", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second, "other key must not wait on the slow holder")
}

func TestQueue_Timeout(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(50*time.Millisecond))

	holding := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- q.Run(context.Background(), "k", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	started := time.Now()
	called := false
	err := q.Run(context.Background(), "k", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, keylock.ErrLockTimeout)
	assert.False(t, called)
	assert.Less(t, time.Since(started), 2*time.Second)

	// The holder is not interrupted by the waiter giving up.
	close(release)
	assert.NoError(t, <-holderDone)

	// And the key is usable again afterwards.
	assert.NoError(t, q.Run(context.Background(), "k", func(ctx context.Context) error { return nil }))
}

func TestQueue_CallerDeadline(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(time.Minute))

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), "k", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := q.Run(ctx, "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, keylock.ErrLockTimeout)
}

func TestQueue_CallerCancel(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker())

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), "k", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := q.Run(ctx, "k", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, keylock.ErrLockAborted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Reentrant(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(100*time.Millisecond))

	var inner bool
	err := q.Run(context.Background(), "k", func(ctx context.Context) error {
		assert.True(t, q.Held(ctx, "k"))
		assert.False(t, q.Held(ctx, "other"))
		return q.Run(ctx, "k", func(ctx context.Context) error {
			inner = true
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, inner)

	t.Run("held marker is scoped to the queue", func(t *testing.T) {
		other := keylock.New(keylock.NewMemoryLocker())
		err := q.Run(context.Background(), "k", func(ctx context.Context) error {
			assert.False(t, other.Held(ctx, "k"))
			return nil
		})
		require.NoError(t, err)
	})
}

func TestQueue_ReleasesOnErrorAndPanic(t *testing.T) {
	t.Parallel()
	locker := keylock.NewMemoryLocker()
	q := keylock.New(locker, keylock.WithTimeout(100*time.Millisecond))

	boom := errors.New("boom")
	err := q.Run(context.Background(), "k", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = q.Run(context.Background(), "k", func(ctx context.Context) error { panic("boom") })
	})

	assert.NoError(t, q.Run(context.Background(), "k", func(ctx context.Context) error { return nil }))
	assert.Equal(t, 0, locker.Len())
}

func TestQueue_EmptyKey(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker())
	err := q.Run(context.Background(), "", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, keylock.ErrEmptyKey)
}

func TestQueue_NonPositiveTimeoutIgnored(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(0))
	assert.Equal(t, 10*time.Second, q.Timeout())

	q = keylock.NewFromConfig(keylock.Config{Timeout: 3 * time.Second}, keylock.NewMemoryLocker())
	assert.Equal(t, 3*time.Second, q.Timeout())
}

func TestDo(t *testing.T) {
	t.Parallel()
	q := keylock.New(keylock.NewMemoryLocker())

	v, err := keylock.Do(context.Background(), q, "k", func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = keylock.Do(context.Background(), q, "k", func(ctx context.Context) (int, error) {
		return 0, fmt.Errorf("wrapped: %w", keylock.ErrEmptyKey)
	})
	assert.ErrorIs(t, err, keylock.ErrEmptyKey)
}

func TestMemoryLocker_FIFOHandoff(t *testing.T) {
	t.Parallel()
	locker := keylock.NewMemoryLocker()

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := locker.Lock(context.Background(), "k")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			u()
		}()
		// Let each waiter enqueue before the next one.
		time.Sleep(10 * time.Millisecond)
	}

	unlock()
	unlock() // double unlock is a no-op
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, locker.Len())
}
