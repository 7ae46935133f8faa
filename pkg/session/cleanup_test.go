package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/session"
)

func TestRunCleanup(t *testing.T) {
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	expired := session.NewSession("expired", session.NewClientID(), nil, time.Hour)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	live := session.NewSession("live", session.NewClientID(), nil, time.Hour)
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))
	require.Equal(t, 2, store.Len())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		session.RunCleanup(runCtx, store, 10*time.Millisecond, nil)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}

	_, err := store.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestRunCleanupDisabled(t *testing.T) {
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	// Returns immediately without an interval.
	session.RunCleanup(context.Background(), store, 0, nil)
}
