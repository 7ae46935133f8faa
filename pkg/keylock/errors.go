package keylock

import "errors"

var (
	// ErrLockTimeout is returned when exclusivity could not be acquired in time.
	// It is retryable.
	ErrLockTimeout = errors.New("keylock.timeout")

	// ErrLockAborted is returned when the caller cancelled while waiting.
	ErrLockAborted = errors.New("keylock.aborted")

	ErrEmptyKey          = errors.New("keylock.empty_key")
	ErrLockerUnavailable = errors.New("keylock.locker_unavailable")
)
