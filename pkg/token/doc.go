// Package token issues and verifies signed session-identity tokens.
//
// A token lets a stateless API client assert which shopping session it
// belongs to without the server persisting the token itself. The payload
// carries the registered JWT time claims (iss, iat, nbf, exp), the session
// key sealed with XChaCha20-Poly1305 and the client-assigned sub-identifier
// in clear text. The sub-identifier is bound to the sealed session key as
// additional authenticated data, so a token cannot be re-targeted at another
// client id even by someone who can re-sign it with a leaked signing key.
//
// Tokens are signed with HMAC-SHA256 (HS256 only, algorithm pinned on
// verification). Signing and sealing keys are derived from a single secret
// with HKDF-SHA256.
//
// # Usage
//
//	import "github.com/dmitrymomot/storefront/pkg/token"
//
//	codec, err := token.New(secret, token.WithTTL(48*time.Hour))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := codec.Encode(token.Identity{SessionKey: key, ClientID: cid})
//
//	id, err := codec.Decode(tok)
//	if errors.Is(err, token.ErrInvalid) {
//	    // treat the request as a new anonymous session
//	}
//
// # Errors
//
// Decode never panics. Every failure matches ErrInvalid via errors.Is and
// additionally one of ErrMalformed, ErrSignature, ErrExpired or
// ErrNotYetValid so callers may log the reason without branching on it.
package token
