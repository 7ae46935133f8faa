package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	infoSigning = "storefront/token/signing"
	infoSealing = "storefront/token/session-key"
)

var errSealedTooShort = errors.New("sealed payload too short")

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("token: derive key: %w", err)
	}
	return key, nil
}

// sealer encrypts the session key so it is opaque to the client.
type sealer struct {
	key []byte
}

func newSealer(secret string) (*sealer, error) {
	key, err := deriveKey(secret, infoSealing)
	if err != nil {
		return nil, err
	}
	return &sealer{key: key}, nil
}

// seal binds the client id as additional data.
func (s *sealer) seal(sessionKey, clientID string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("token: seal: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(sessionKey)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("token: seal nonce: %w", err)
	}

	out := aead.Seal(nonce, nonce, []byte(sessionKey), []byte(clientID))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *sealer) open(sealed, clientID string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", errSealedTooShort
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(clientID))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
