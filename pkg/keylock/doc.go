// Package keylock serializes units of work per key.
//
// It is the mutation queue behind cart operations: for any session key at
// most one unit of work runs at a time, while work for different keys never
// waits on each other. Waiting is bounded by a configurable timeout (and by
// the caller's own deadline), after which Run returns ErrLockTimeout so the
// client can back off and retry.
//
// Two Locker back-ends are provided:
//
//   - MemoryLocker: an in-process registry of one-slot semaphores. Waiters are
//     handed the slot in FIFO order, entries are dropped as soon as no holder
//     or waiter references them.
//   - RedisLocker: a lease-based lock (SET NX PX + compare-and-delete) for
//     deployments running several replicas against a shared session store.
//
// The Queue on top is re-entrant for the call chain that already holds a key:
// a mutation that calls another mutation on the same session with the context
// it was given runs inline instead of deadlocking.
//
//	q := keylock.New(keylock.NewMemoryLocker(), keylock.WithTimeout(5*time.Second))
//	err := q.Run(ctx, sessionKey, func(ctx context.Context) error {
//	    // read, modify and write the session record
//	    return nil
//	})
//	if errors.Is(err, keylock.ErrLockTimeout) {
//	    // retryable
//	}
package keylock
