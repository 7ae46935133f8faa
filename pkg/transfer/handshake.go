package transfer

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/nonce"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/token"
)

// Codec encodes and decodes session tokens.
type Codec = session.Codec

// Transport writes the stateful session token, usually a cookie.
type Transport = session.Transport

// Signer creates and verifies tick-bucket nonces. *nonce.Signer satisfies it.
type Signer interface {
	Create(action, sessionKey, clientID string) string
	Verify(n, action, sessionKey, clientID string) nonce.Result
	TickWidth() time.Duration
}

// Store loads session records.
type Store interface {
	Get(ctx context.Context, key string) (*session.Session, error)
}

// RejectHook observes rejected transfers. reason matches ErrRejected and one
// of the specific rejection errors.
type RejectHook func(r *http.Request, reason error)

// Option configures a Handshake.
type Option func(*Handshake)

func WithBaseURL(base string) Option {
	return func(h *Handshake) {
		h.baseURL = strings.TrimRight(base, "/")
	}
}

func WithPath(path string) Option {
	return func(h *Handshake) {
		if path != "" {
			h.path = path
		}
	}
}

// WithFallbackURL sets where rejected transfers land.
func WithFallbackURL(u string) Option {
	return func(h *Handshake) {
		if u != "" {
			h.fallbackURL = u
		}
	}
}

// WithDestinations replaces the action to destination map.
func WithDestinations(dest map[string]string) Option {
	return func(h *Handshake) {
		h.destinations = make(map[string]string, len(dest))
		for action, path := range dest {
			h.destinations[action] = path
		}
	}
}

func WithReplayGuard(g ReplayGuard) Option {
	return func(h *Handshake) {
		h.guard = g
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handshake) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithRejectHook(fn RejectHook) Option {
	return func(h *Handshake) {
		h.onReject = fn
	}
}

// Handshake builds transfer links and serves the transfer endpoint.
type Handshake struct {
	codec   Codec
	signer  Signer
	store   Store
	cookies Transport
	guard   ReplayGuard

	baseURL      string
	path         string
	fallbackURL  string
	destinations map[string]string

	logger   *slog.Logger
	onReject RejectHook
}

// New creates a Handshake. cookies receives the token of accepted transfers.
func New(codec Codec, signer Signer, store Store, cookies Transport, opts ...Option) *Handshake {
	h := &Handshake{
		codec:        codec,
		signer:       signer,
		store:        store,
		cookies:      cookies,
		path:         "/session/transfer",
		fallbackURL:  "/",
		destinations: DefaultDestinations(),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("transfer"))
	return h
}

// Path returns the route the endpoint must be mounted on.
func (h *Handshake) Path() string {
	return h.path
}

// Actions returns the configured action names, sorted.
func (h *Handshake) Actions() []string {
	return slices.Sorted(maps.Keys(h.destinations))
}

// Link returns a transfer URL for id. redirectTo is optional and must be a
// relative path on this site.
func (h *Handshake) Link(id token.Identity, action, redirectTo string) (string, error) {
	if _, ok := h.destinations[action]; !ok {
		return "", ErrUnknownAction
	}
	if redirectTo != "" && !isSafeRedirect(redirectTo) {
		return "", ErrUnsafeRedirect
	}

	tok, err := h.codec.Encode(id)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set(ParamSessionID, tok)
	q.Set(ParamAction, action)
	q.Set(ParamNonce, h.signer.Create(action, id.SessionKey, id.ClientID))
	if redirectTo != "" {
		q.Set(ParamRedirectTo, redirectTo)
	}

	return h.baseURL + h.path + "?" + q.Encode(), nil
}

// Links returns a link for every configured action.
func (h *Handshake) Links(id token.Identity) (map[string]string, error) {
	out := make(map[string]string, len(h.destinations))
	for action := range h.destinations {
		link, err := h.Link(id, action, "")
		if err != nil {
			return nil, err
		}
		out[action] = link
	}
	return out, nil
}

// ServeHTTP accepts or rejects a transfer and always answers with a redirect,
// except when the session store is unavailable.
func (h *Handshake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	id, err := h.codec.Decode(q.Get(ParamSessionID))
	if err != nil {
		h.reject(w, r, ErrInvalidToken)
		return
	}

	action := q.Get(ParamAction)
	target, ok := h.destinations[action]
	if !ok {
		h.reject(w, r, ErrUnknownAction)
		return
	}

	n := q.Get(ParamNonce)
	bucket := h.signer.Verify(n, action, id.SessionKey, id.ClientID)
	if !bucket.Valid() {
		h.reject(w, r, ErrInvalidNonce)
		return
	}

	if rt := q.Get(ParamRedirectTo); rt != "" {
		if !isSafeRedirect(rt) {
			h.reject(w, r, ErrUnsafeRedirect)
			return
		}
		target = rt
	}

	sess, err := h.store.Get(r.Context(), id.SessionKey)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrInvalidSession):
		h.reject(w, r, ErrSessionGone)
		return
	default:
		h.fail(w, r, err)
		return
	}
	if !sess.MatchesClient(id.ClientID) {
		h.reject(w, r, ErrSessionGone)
		return
	}

	if h.guard != nil {
		fresh, err := h.guard.Consume(r.Context(), replayKey(action, id.SessionKey, n), 2*h.signer.TickWidth())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !fresh {
			h.reject(w, r, ErrReplayed)
			return
		}
	}

	tok, err := h.codec.Encode(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.cookies.SetToken(w, tok, h.codec.TTL()); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "session transferred",
		logger.Event("transfer.accepted"),
		slog.String("action", action),
		slog.String("bucket", bucket.String()),
	)

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handshake) reject(w http.ResponseWriter, r *http.Request, reason error) {
	h.logger.WarnContext(r.Context(), "session transfer rejected", logger.Event("transfer.rejected"))

	if h.onReject != nil {
		h.onReject(r, errors.Join(ErrRejected, reason))
	}

	http.Redirect(w, r, h.fallbackURL, http.StatusFound)
}

func (h *Handshake) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "session transfer failed", logger.Error(err))
	http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
}

func replayKey(action, sessionKey, n string) string {
	return action + ":" + sessionKey + ":" + n
}

// isSafeRedirect accepts only paths on the current origin.
func isSafeRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	if strings.ContainsFunc(target, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}
