package keylock

import "context"

// Unlock releases a held key. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive ownership of a key.
type Locker interface {
	// Lock blocks until the key is acquired or ctx is done.
	// On ctx expiry it returns ctx.Err() and holds nothing.
	Lock(ctx context.Context, key string) (Unlock, error)
}
