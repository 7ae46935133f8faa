package cart_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
)

func TestItemKey(t *testing.T) {
	t.Parallel()

	k := cart.ItemKey("prod-1", "blue")
	assert.Len(t, k, 32)
	assert.Equal(t, k, cart.ItemKey("prod-1", "blue"))
	assert.NotEqual(t, k, cart.ItemKey("prod-1", "red"))
	assert.NotEqual(t, cart.ItemKey("ab", "c"), cart.ItemKey("a", "bc"))
}

func TestCart_Add(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}

	item, err := c.Add("prod-1", "", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	item, err = c.Add("prod-1", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Len(t, c.Items, 1)

	_, err = c.Add("prod-1", "large", 1)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 6, c.Count())

	_, err = c.Add("", "", 1)
	assert.ErrorIs(t, err, cart.ErrInvalidProduct)
	_, err = c.Add("prod-2", "", 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = c.Add("prod-1", "", cart.MaxQuantity)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestCart_SetQuantity(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}
	item, err := c.Add("prod-1", "", 2)
	require.NoError(t, err)

	updated, err := c.SetQuantity(item.Key, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	_, err = c.SetQuantity(item.Key, -1)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = c.SetQuantity("missing", 1)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	_, err = c.SetQuantity(item.Key, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	require.Len(t, c.Removed, 1)
}

func TestCart_RemoveRestore(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}
	a, err := c.Add("prod-a", "", 3)
	require.NoError(t, err)
	b, err := c.Add("prod-b", "", 1)
	require.NoError(t, err)

	removed, err := c.Remove(a.Key)
	require.NoError(t, err)
	assert.Equal(t, 3, removed.Quantity)
	_, ok := c.Item(a.Key)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Count())

	restored, err := c.Restore(a.Key)
	require.NoError(t, err)
	assert.Equal(t, a, restored, "restored with the exact previous quantity")
	assert.Empty(t, c.Removed)
	assert.Equal(t, 4, c.Count())

	_, err = c.Restore(a.Key)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
	_, err = c.Remove("missing")
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	// Re-adding a removed product forgets the parked line.
	_, err = c.Remove(b.Key)
	require.NoError(t, err)
	_, err = c.Add("prod-b", "", 5)
	require.NoError(t, err)
	_, err = c.Restore(b.Key)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestCart_Empty(t *testing.T) {
	t.Parallel()

	c := &cart.Cart{}
	a, _ := c.Add("prod-a", "", 1)
	_, _ = c.Add("prod-b", "", 1)
	_, _ = c.Remove(a.Key)

	c.Empty()
	assert.Empty(t, c.Items)
	assert.Empty(t, c.Removed)
	assert.Equal(t, 0, c.Count())
}

func TestLoadSave(t *testing.T) {
	t.Parallel()

	sess := session.NewSession("key", "client", nil, time.Hour)

	c, err := cart.Load(sess)
	require.NoError(t, err)
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)

	_, err = c.Add("prod-1", "", 2)
	require.NoError(t, err)
	require.NoError(t, cart.Save(sess, c))

	again, err := cart.Load(sess)
	require.NoError(t, err)
	assert.Equal(t, c.Items, again.Items)

	require.NoError(t, sess.SetValue("cart", "not a cart"))
	_, err = cart.Load(sess)
	assert.Error(t, err)
}
