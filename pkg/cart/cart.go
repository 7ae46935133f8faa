package cart

import (
	"encoding/hex"
	"errors"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/dmitrymomot/storefront/pkg/session"
)

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 999

// sessionKey is the session data entry holding the cart.
const sessionKey = "cart"

// Item is a cart line.
type Item struct {
	Key         string `json:"key"`
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Cart is the content of a session's cart.
type Cart struct {
	Items   []Item `json:"items"`
	Removed []Item `json:"removed,omitempty"`
}

// ItemKey returns the line key for a product variation.
func ItemKey(productID, variationID string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(productID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(variationID))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Load returns the cart stored in sess, or an empty cart.
func Load(sess *session.Session) (*Cart, error) {
	c := &Cart{Items: []Item{}}
	if _, err := sess.Value(sessionKey, c); err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

// Save stores c in sess.
func Save(sess *session.Session, c *Cart) error {
	return sess.SetValue(sessionKey, c)
}

// Add puts qty units of a product variation into the cart.
func (c *Cart) Add(productID, variationID string, qty int) (Item, error) {
	if productID == "" {
		return Item{}, ErrInvalidProduct
	}
	if qty <= 0 {
		return Item{}, ErrInvalidQuantity
	}

	key := ItemKey(productID, variationID)
	c.Removed = slices.DeleteFunc(c.Removed, func(it Item) bool { return it.Key == key })

	if i := c.index(key); i >= 0 {
		if c.Items[i].Quantity+qty > MaxQuantity {
			return Item{}, ErrInvalidQuantity
		}
		c.Items[i].Quantity += qty
		return c.Items[i], nil
	}

	if qty > MaxQuantity {
		return Item{}, ErrInvalidQuantity
	}
	item := Item{Key: key, ProductID: productID, VariationID: variationID, Quantity: qty}
	c.Items = append(c.Items, item)
	return item, nil
}

// SetQuantity sets the quantity of a line. Zero removes it.
func (c *Cart) SetQuantity(key string, qty int) (Item, error) {
	if qty < 0 || qty > MaxQuantity {
		return Item{}, ErrInvalidQuantity
	}
	if qty == 0 {
		return c.Remove(key)
	}

	i := c.index(key)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}
	c.Items[i].Quantity = qty
	return c.Items[i], nil
}

// Remove takes a line out of the cart and keeps it for Restore.
func (c *Cart) Remove(key string) (Item, error) {
	i := c.index(key)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}

	item := c.Items[i]
	c.Items = slices.Delete(c.Items, i, i+1)
	c.Removed = slices.DeleteFunc(c.Removed, func(it Item) bool { return it.Key == key })
	c.Removed = append(c.Removed, item)
	return item, nil
}

// Restore puts a removed line back with its previous quantity.
func (c *Cart) Restore(key string) (Item, error) {
	i := slices.IndexFunc(c.Removed, func(it Item) bool { return it.Key == key })
	if i < 0 {
		return Item{}, ErrItemNotFound
	}

	item := c.Removed[i]
	c.Removed = slices.Delete(c.Removed, i, i+1)
	c.Items = append(c.Items, item)
	return item, nil
}

// Item returns the line with key.
func (c *Cart) Item(key string) (Item, bool) {
	if i := c.index(key); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// Empty removes every line, parked ones included.
func (c *Cart) Empty() {
	c.Items = []Item{}
	c.Removed = nil
}

// Count returns the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) index(key string) int {
	return slices.IndexFunc(c.Items, func(it Item) bool { return it.Key == key })
}

// IsUserError reports whether err is caused by the request rather than the system.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) || errors.Is(err, ErrInvalidProduct) || errors.Is(err, ErrItemNotFound)
}
