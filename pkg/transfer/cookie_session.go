package transfer

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/storefront/pkg/session"
)

// CookieSession resolves the session established by a transfer from the
// request cookie. It returns session.ErrSessionNotFound when the cookie is
// missing, invalid or points to a session that no longer accepts it.
func (h *Handshake) CookieSession(r *http.Request) (*session.Session, error) {
	tok, err := h.cookies.GetToken(r)
	if err != nil {
		return nil, session.ErrSessionNotFound
	}

	id, err := h.codec.Decode(tok)
	if err != nil {
		return nil, session.ErrSessionNotFound
	}

	sess, err := h.store.Get(r.Context(), id.SessionKey)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return nil, session.ErrSessionNotFound
		}
		return nil, err
	}
	if !sess.MatchesClient(id.ClientID) {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// CookieMiddleware binds the cookie session, when there is one, to the
// request context of browser pages. A failing store answers 503.
func (h *Handshake) CookieMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.CookieSession(r)
		switch {
		case err == nil:
			r = r.WithContext(session.WithSession(r.Context(), sess))
		case errors.Is(err, session.ErrSessionNotFound):
		default:
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
