package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	minSecretLength = 32
	defaultTTL      = 48 * time.Hour
	defaultIssuer   = "storefront"
)

// Identity is the pair of values a session token asserts.
type Identity struct {
	SessionKey string
	ClientID   string
}

// IsZero reports whether the identity carries no session key.
func (i Identity) IsZero() bool {
	return i.SessionKey == ""
}

// claims is the token payload. The session key never appears in clear text.
type claims struct {
	jwt.RegisteredClaims
	SealedKey string `json:"sk"`
	ClientID  string `json:"cid"`
}

// Codec encodes and decodes session tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	signingKey []byte
	seal       *sealer
	issuer     string
	ttl        time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// New creates a Codec. The secret must be at least 32 bytes long.
func New(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%w: got %d chars, need at least %d", ErrSecretTooShort, len(secret), minSecretLength)
	}

	signingKey, err := deriveKey(secret, infoSigning)
	if err != nil {
		return nil, err
	}
	s, err := newSealer(secret)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		signingKey: signingKey,
		seal:       s,
		issuer:     defaultIssuer,
		ttl:        defaultTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TTL returns the lifetime of newly issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode issues a new token for the identity. Tokens are never mutated in
// place: rotating means encoding again.
func (c *Codec) Encode(id Identity) (string, error) {
	if id.SessionKey == "" || id.ClientID == "" {
		return "", ErrEmptyIdentity
	}

	sealed, err := c.seal.seal(id.SessionKey, id.ClientID)
	if err != nil {
		return "", err
	}

	now := c.now()
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		SealedKey: sealed,
		ClientID:  id.ClientID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the identity it carries.
// Any failure is reported as an error matching ErrInvalid.
func (c *Codec) Decode(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, invalid(ErrMalformed)
	}

	var cl claims
	_, err := jwt.ParseWithClaims(tokenString, &cl,
		func(*jwt.Token) (any, error) { return c.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Identity{}, classify(err)
	}

	// nbf is optional in the JWT validator; ours always sets it.
	if cl.NotBefore == nil {
		return Identity{}, invalid(ErrMalformed)
	}
	if cl.ClientID == "" || cl.SealedKey == "" {
		return Identity{}, invalid(ErrMalformed)
	}

	key, err := c.seal.open(cl.SealedKey, cl.ClientID)
	if err != nil {
		return Identity{}, invalid(ErrSignature, err)
	}

	return Identity{SessionKey: key, ClientID: cl.ClientID}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return invalid(ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return invalid(ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid(ErrSignature, err)
	default:
		return invalid(ErrMalformed, err)
	}
}
