package session

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of a shopping session.
type Session struct {
	Key            string                     `json:"key"`
	ClientID       string                     `json:"client_id"`
	CustomerID     *uuid.UUID                 `json:"customer_id,omitempty"`
	Data           map[string]json.RawMessage `json:"data,omitempty"`
	ExpiresAt      time.Time                  `json:"expires_at"`
	LastActivityAt time.Time                  `json:"last_activity_at"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// NewSession creates a new session with the given parameters
func NewSession(key, clientID string, customerID *uuid.UUID, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		Key:            key,
		ClientID:       clientID,
		CustomerID:     customerID,
		Data:           make(map[string]json.RawMessage),
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

// NewClientID returns a fresh client sub-identifier.
func NewClientID() string {
	return uuid.NewString()
}

// IsAuthenticated returns true if the session belongs to a known customer
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.CustomerID != nil
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// MatchesClient compares the client sub-identifier in constant time.
func (s *Session) MatchesClient(clientID string) bool {
	if s == nil || s.ClientID == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.ClientID), []byte(clientID)) == 1
}

// Value decodes the value stored under key into dst.
func (s *Session) Value(key string, dst any) (bool, error) {
	if s == nil || s.Data == nil {
		return false, nil
	}
	raw, ok := s.Data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

// SetValue stores value under key.
func (s *Session) SetValue(key string, value any) error {
	if s == nil {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	if s.Data == nil {
		s.Data = make(map[string]json.RawMessage)
	}
	s.Data[key] = raw
	return nil
}

// Delete removes a value from session data
func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
}

// Clear removes all data from the session
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.Data = make(map[string]json.RawMessage)
}

// Clone returns a deep copy so stores never share maps with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.CustomerID != nil {
		id := *s.CustomerID
		c.CustomerID = &id
	}
	if s.Data != nil {
		c.Data = make(map[string]json.RawMessage, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}
