package session

import "errors"

var (
	// ErrSessionNotFound indicates no live session record exists for the key.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session record has passed its expiry.
	ErrSessionExpired = errors.New("session.expired")

	// ErrInvalidSession indicates a record that cannot be stored.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrStoreUnavailable indicates the backing store failed. It is fatal for
	// the current request.
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrNoSession indicates the request context carries no session.
	ErrNoSession = errors.New("session.not_in_context")

	ErrKeyGeneration = errors.New("session.key_generation_failed")
	ErrTokenIssue    = errors.New("session.token_issue_failed")
)
