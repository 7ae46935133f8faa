package cart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/keylock"
	"github.com/dmitrymomot/storefront/pkg/session"
)

func newService(t *testing.T) (*cart.Service, *session.MemoryStore, string) {
	t.Helper()

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	sess := session.NewSession("session-key", "client", nil, time.Hour)
	require.NoError(t, store.Save(context.Background(), sess))

	return cart.NewService(store, keylock.New(keylock.NewMemoryLocker())), store, sess.Key
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	svc, _, key := newService(t)
	ctx := context.Background()

	c, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	c, err = svc.AddItem(ctx, key, "prod-1", "", 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	itemKey := c.Items[0].Key

	c, err = svc.UpdateQuantity(ctx, key, itemKey, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Count())

	c, err = svc.RemoveItem(ctx, key, itemKey)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Count())

	c, err = svc.RestoreItem(ctx, key, itemKey)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Count())

	c, err = svc.EmptyCart(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Count())

	stored, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestService_FailedMutationIsNotSaved(t *testing.T) {
	t.Parallel()

	svc, _, key := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, key, "prod-1", "", 1)
	require.NoError(t, err)

	_, err = svc.Mutate(ctx, key, func(c *cart.Cart) error {
		c.Empty()
		return cart.ErrInvalidQuantity
	})
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	c, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count())
}

func TestService_UnknownSession(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)

	_, err := svc.AddItem(context.Background(), "missing", "prod-1", "", 1)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestService_ConcurrentAddsAreNotLost(t *testing.T) {
	t.Parallel()

	svc, _, key := newService(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, key, "prod-1", "", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, workers, c.Count())
}

func TestService_ConcurrentQuantityUpdates(t *testing.T) {
	t.Parallel()

	for range 20 {
		svc, _, key := newService(t)
		ctx := context.Background()

		c, err := svc.AddItem(ctx, key, "prod-1", "", 1)
		require.NoError(t, err)
		itemKey := c.Items[0].Key

		var wg sync.WaitGroup
		for _, qty := range []int{3, 4} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.UpdateQuantity(ctx, key, itemKey, qty)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		c, err = svc.Get(ctx, key)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Contains(t, []int{3, 4}, c.Items[0].Quantity)
	}
}

func TestService_MutationsKeepSessionData(t *testing.T) {
	t.Parallel()

	svc, store, key := newService(t)
	ctx := context.Background()

	sess, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NoError(t, sess.SetValue("currency", "EUR"))
	require.NoError(t, store.Save(ctx, sess))

	_, err = svc.AddItem(ctx, key, "prod-1", "", 1)
	require.NoError(t, err)

	sess, err = store.Get(ctx, key)
	require.NoError(t, err)
	var currency string
	ok, err := sess.Value("currency", &currency)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "EUR", currency)
}
