// Package cart keeps a shopping cart inside the session record.
//
// Queries read the cart from the request's session snapshot or via
// Service.Get without taking a lock. Every mutation goes through
// Service.Mutate, which reloads the record from the store under the session's
// mutation lock, applies the change and saves it, so concurrent requests of
// one session never overwrite each other.
//
// Items are keyed by a BLAKE3 digest of product and variation id, which keeps
// keys stable across requests and processes. Removed items are parked so they
// can be restored with their previous quantity.
package cart
