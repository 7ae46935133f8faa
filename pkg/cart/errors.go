package cart

import "errors"

var (
	ErrItemNotFound    = errors.New("cart.item_not_found")
	ErrInvalidQuantity = errors.New("cart.invalid_quantity")
	ErrInvalidProduct  = errors.New("cart.invalid_product")
)
