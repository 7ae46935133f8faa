package storefront

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/transfer"
)

type linksResponse struct {
	Links map[string]string `json:"links"`
}

// SessionHandler exposes session maintenance and transfer links to the API
// client.
type SessionHandler struct {
	sessions *session.Manager
	transfer *transfer.Handshake
	logger   *slog.Logger
}

func NewSessionHandler(sessions *session.Manager, handshake *transfer.Handshake, log *slog.Logger) *SessionHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SessionHandler{sessions: sessions, transfer: handshake, logger: log}
}

// rotate issues a new token for the session and invalidates older ones.
func (h *SessionHandler) rotate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Rotate(r.Context(), w); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// links returns one transfer URL per action. An optional redirect_to query
// parameter is carried by every link.
func (h *SessionHandler) links(w http.ResponseWriter, r *http.Request) {
	id, ok := session.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, session.ErrNoSession)
		return
	}

	redirectTo := r.URL.Query().Get(transfer.ParamRedirectTo)
	links := make(map[string]string)
	for _, action := range h.transfer.Actions() {
		link, err := h.transfer.Link(id, action, redirectTo)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		links[action] = link
	}

	writeJSON(w, http.StatusOK, linksResponse{Links: links})
}

// WebCartHandler serves the cart of a browser that arrived through a
// transfer link. It expects Handshake.CookieMiddleware upstream.
func WebCartHandler(log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			writeError(w, r, log, session.ErrSessionNotFound)
			return
		}
		c, err := cart.Load(sess)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(c))
	}
}
