package session

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/token"
)

type sessionContextKey struct{}

// WithSession adds a session to the context
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext retrieves a session from the context.
// The value is a snapshot taken when the request started; mutations must
// reload the record under the session's mutation lock.
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}

// MustFromContext retrieves a session from the context or panics
func MustFromContext(ctx context.Context) *Session {
	session, ok := FromContext(ctx)
	if !ok {
		panic("session: not found in context")
	}
	return session
}

// KeyFromContext returns the session key bound to the request.
func KeyFromContext(ctx context.Context) (string, bool) {
	session, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return session.Key, true
}

// IdentityFromContext returns the token identity of the session bound to ctx.
func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	session, ok := FromContext(ctx)
	if !ok {
		return token.Identity{}, false
	}
	return token.Identity{SessionKey: session.Key, ClientID: session.ClientID}, true
}
