package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const (
	defaultTick = 12 * time.Hour
	length      = 10
)

// Result tells which tick bucket a nonce was verified in.
type Result int

const (
	Invalid  Result = 0
	Current  Result = 1
	Previous Result = 2
)

// Valid reports whether the nonce was accepted in either bucket.
func (r Result) Valid() bool {
	return r == Current || r == Previous
}

func (r Result) String() string {
	switch r {
	case Current:
		return "current"
	case Previous:
		return "previous"
	default:
		return "invalid"
	}
}

// Option configures a Signer.
type Option func(*Signer)

// WithTick sets the width of a tick bucket. New rejects widths that are not
// a positive whole number of seconds.
func WithTick(d time.Duration) Option {
	return func(s *Signer) {
		s.tick = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// Signer creates and verifies nonces.
type Signer struct {
	secret []byte
	tick   time.Duration
	now    func() time.Time
}

// New creates a Signer.
func New(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	s := &Signer{
		secret: []byte(secret),
		tick:   defaultTick,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tick < time.Second || s.tick%time.Second != 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTick, s.tick)
	}
	return s, nil
}

// TickWidth returns the width of a tick bucket.
func (s *Signer) TickWidth() time.Duration {
	return s.tick
}

// Tick returns the bucket index for t.
func (s *Signer) Tick(t time.Time) int64 {
	width := int64(s.tick / time.Second)
	unix := t.Unix()
	tick := unix / width
	if unix%width != 0 {
		tick++
	}
	return tick
}

// Create returns the nonce for the current tick.
func (s *Signer) Create(action, sessionKey, clientID string) string {
	return s.hash(s.Tick(s.now()), action, sessionKey, clientID)
}

// Verify checks the nonce against the current and the previous tick.
func (s *Signer) Verify(nonce, action, sessionKey, clientID string) Result {
	if len(nonce) != length {
		return Invalid
	}

	tick := s.Tick(s.now())
	if hmac.Equal([]byte(nonce), []byte(s.hash(tick, action, sessionKey, clientID))) {
		return Current
	}
	if hmac.Equal([]byte(nonce), []byte(s.hash(tick-1, action, sessionKey, clientID))) {
		return Previous
	}
	return Invalid
}

func (s *Signer) hash(tick int64, action, sessionKey, clientID string) string {
	mac := hmac.New(sha256.New, s.secret)
	// Length-prefix each field so "ab|c" and "a|bc" cannot collide.
	for _, part := range []string{strconv.FormatInt(tick, 10), action, sessionKey, clientID} {
		mac.Write([]byte(strconv.Itoa(len(part))))
		mac.Write([]byte{':'})
		mac.Write([]byte(part))
	}
	return hex.EncodeToString(mac.Sum(nil))[:length]
}
