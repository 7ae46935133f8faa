package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store persists session records keyed by session key.
//
// Implementations wrap back-end failures in ErrStoreUnavailable and report
// missing or expired records as ErrSessionNotFound.
type Store interface {
	// GenerateKey returns a new, unused session key.
	GenerateKey(ctx context.Context) (string, error)

	// Get retrieves a live session by key.
	Get(ctx context.Context, key string) (*Session, error)

	// Save creates or replaces the record.
	Save(ctx context.Context, session *Session) error

	// Delete removes a session by key.
	Delete(ctx context.Context, key string) error

	// DeleteExpired removes all expired sessions.
	DeleteExpired(ctx context.Context) error
}

// generateKey is shared by the bundled stores.
func generateKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Join(ErrKeyGeneration, err)
	}
	return id.String(), nil
}

func validateForSave(s *Session) error {
	if s == nil || s.Key == "" || s.ClientID == "" {
		return ErrInvalidSession
	}
	return nil
}
