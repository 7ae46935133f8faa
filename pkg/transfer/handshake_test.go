package transfer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/nonce"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/token"
	"github.com/dmitrymomot/storefront/pkg/transfer"
)

const (
	secret     = "0123456789abcdef0123456789abcdef"
	cookieName = "storefront_session"
	tick       = 12 * time.Hour
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	h       *transfer.Handshake
	store   *session.MemoryStore
	clk     *clock
	sess    *session.Session
	id      token.Identity
	rejects []error
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, opts ...transfer.Option) *fixture {
	t.Helper()

	// Middle of a tick bucket.
	clk := &clock{now: time.Unix(39352*43200+21600, 0)}

	codec, err := token.New(secret, token.WithClock(clk.Now))
	require.NoError(t, err)
	signer, err := nonce.New(secret, nonce.WithTick(tick), nonce.WithClock(clk.Now))
	require.NoError(t, err)
	jar, err := cookie.New([]string{secret})
	require.NoError(t, err)

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	sess := session.NewSession("session-key", session.NewClientID(), nil, time.Hour)
	require.NoError(t, store.Save(context.Background(), sess))

	f := &fixture{
		store: store,
		clk:   clk,
		sess:  sess,
		id:    token.Identity{SessionKey: sess.Key, ClientID: sess.ClientID},
		logs:  &bytes.Buffer{},
	}

	base := []transfer.Option{
		transfer.WithBaseURL("https://shop.example/"),
		transfer.WithLogger(slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		transfer.WithRejectHook(func(_ *http.Request, reason error) {
			f.rejects = append(f.rejects, reason)
		}),
	}
	f.h = transfer.New(codec, signer, store, session.NewCookieTransport(jar, cookieName, true), append(base, opts...)...)
	return f
}

func (f *fixture) link(t *testing.T, action, redirectTo string) *url.URL {
	t.Helper()
	raw, err := f.h.Link(f.id, action, redirectTo)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func (f *fixture) follow(u *url.URL) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	return w
}

func TestHandshake_Link(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.link(t, transfer.ActionCheckout, "/checkout/payment")

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "shop.example", u.Host)
	assert.Equal(t, "/session/transfer", u.Path)

	q := u.Query()
	assert.NotEmpty(t, q.Get(transfer.ParamSessionID))
	assert.Equal(t, transfer.ActionCheckout, q.Get(transfer.ParamAction))
	assert.Len(t, q.Get(transfer.ParamNonce), 10)
	assert.Equal(t, "/checkout/payment", q.Get(transfer.ParamRedirectTo))

	_, err := f.h.Link(f.id, "wishlist", "")
	assert.ErrorIs(t, err, transfer.ErrUnknownAction)

	_, err = f.h.Link(f.id, transfer.ActionCart, "https://evil.example")
	assert.ErrorIs(t, err, transfer.ErrUnsafeRedirect)

	links, err := f.h.Links(f.id)
	require.NoError(t, err)
	assert.Len(t, links, 3)
	assert.ElementsMatch(t, []string{"cart", "checkout", "account"}, f.h.Actions())
}

func TestHandshake_Accepts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.follow(f.link(t, transfer.ActionCart, ""))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
	assert.Empty(t, f.rejects)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(cookies[0])
	sess, err := f.h.CookieSession(r)
	require.NoError(t, err)
	assert.Equal(t, f.sess.Key, sess.Key)
}

func TestHandshake_PreviousBucketAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.link(t, transfer.ActionAccount, "")

	f.clk.Advance(tick)
	w := f.follow(u)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my-account", w.Header().Get("Location"))
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestHandshake_ExpiredTransfer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.link(t, transfer.ActionCheckout, "")

	f.clk.Advance(2 * tick)
	w := f.follow(u)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies(), "no stateful session is established")

	require.Len(t, f.rejects, 1)
	assert.ErrorIs(t, f.rejects[0], transfer.ErrRejected)
	assert.ErrorIs(t, f.rejects[0], transfer.ErrInvalidNonce)

	assert.Contains(t, f.logs.String(), "transfer.rejected")
	assert.NotContains(t, f.logs.String(), "nonce")
}

func TestHandshake_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(q url.Values)
		reason error
	}{
		{"garbage token", func(q url.Values) { q.Set(transfer.ParamSessionID, "garbage") }, transfer.ErrInvalidToken},
		{"missing token", func(q url.Values) { q.Del(transfer.ParamSessionID) }, transfer.ErrInvalidToken},
		{"unknown action", func(q url.Values) { q.Set(transfer.ParamAction, "wishlist") }, transfer.ErrUnknownAction},
		{"action swapped", func(q url.Values) { q.Set(transfer.ParamAction, transfer.ActionCheckout) }, transfer.ErrInvalidNonce},
		{"tampered nonce", func(q url.Values) { q.Set(transfer.ParamNonce, "0000000000") }, transfer.ErrInvalidNonce},
		{"missing nonce", func(q url.Values) { q.Del(transfer.ParamNonce) }, transfer.ErrInvalidNonce},
		{"absolute redirect", func(q url.Values) { q.Set(transfer.ParamRedirectTo, "https://evil.example/") }, transfer.ErrUnsafeRedirect},
		{"protocol relative redirect", func(q url.Values) { q.Set(transfer.ParamRedirectTo, "//evil.example") }, transfer.ErrUnsafeRedirect},
		{"backslash redirect", func(q url.Values) { q.Set(transfer.ParamRedirectTo, "/\\evil.example") }, transfer.ErrUnsafeRedirect},
		{"relative redirect", func(q url.Values) { q.Set(transfer.ParamRedirectTo, "cart") }, transfer.ErrUnsafeRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			u := f.link(t, transfer.ActionCart, "")
			q := u.Query()
			tt.mutate(q)
			u.RawQuery = q.Encode()

			w := f.follow(u)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
			assert.Empty(t, w.Result().Cookies())
			require.Len(t, f.rejects, 1)
			assert.ErrorIs(t, f.rejects[0], tt.reason)
		})
	}
}

func TestHandshake_RedirectTo(t *testing.T) {
	t.Parallel()

	f := newFixture(t, transfer.WithFallbackURL("/start"))
	w := f.follow(f.link(t, transfer.ActionCheckout, "/checkout/payment?step=2"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/checkout/payment?step=2", w.Header().Get("Location"))

	u := f.link(t, transfer.ActionCheckout, "")
	q := u.Query()
	q.Set(transfer.ParamNonce, "ffffffffff")
	u.RawQuery = q.Encode()
	assert.Equal(t, "/start", f.follow(u).Header().Get("Location"))
}

func TestHandshake_SessionGone(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u := f.link(t, transfer.ActionCart, "")
		require.NoError(t, f.store.Delete(context.Background(), f.sess.Key))

		w := f.follow(u)
		assert.Equal(t, "/", w.Header().Get("Location"))
		require.Len(t, f.rejects, 1)
		assert.ErrorIs(t, f.rejects[0], transfer.ErrSessionGone)
	})

	t.Run("client rotated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		u := f.link(t, transfer.ActionCart, "")

		rotated := f.sess.Clone()
		rotated.ClientID = session.NewClientID()
		require.NoError(t, f.store.Save(context.Background(), rotated))

		w := f.follow(u)
		assert.Equal(t, "/", w.Header().Get("Location"))
		require.Len(t, f.rejects, 1)
		assert.ErrorIs(t, f.rejects[0], transfer.ErrSessionGone)
	})
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*session.Session, error) {
	return nil, errors.Join(session.ErrStoreUnavailable, errors.New("connection refused"))
}

func TestHandshake_StoreUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.link(t, transfer.ActionCart, "")

	codec, err := token.New(secret, token.WithClock(f.clk.Now))
	require.NoError(t, err)
	signer, err := nonce.New(secret, nonce.WithTick(tick), nonce.WithClock(f.clk.Now))
	require.NoError(t, err)
	jar, err := cookie.New([]string{secret})
	require.NoError(t, err)

	h := transfer.New(codec, signer, brokenStore{}, session.NewCookieTransport(jar, cookieName, false))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestHandshake_ReusableWithoutGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u := f.link(t, transfer.ActionCart, "")

	assert.Equal(t, "/cart", f.follow(u).Header().Get("Location"))
	assert.Equal(t, "/cart", f.follow(u).Header().Get("Location"))
	assert.Empty(t, f.rejects)
}

func TestHandshake_MemoryReplayGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, transfer.WithReplayGuard(transfer.NewMemoryReplayGuard(100)))
	u := f.link(t, transfer.ActionCart, "")

	assert.Equal(t, "/cart", f.follow(u).Header().Get("Location"))

	w := f.follow(u)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, w.Result().Cookies())
	require.Len(t, f.rejects, 1)
	assert.ErrorIs(t, f.rejects[0], transfer.ErrReplayed)

	// A rejected attempt does not burn the nonce of another action.
	assert.Equal(t, "/checkout", f.follow(f.link(t, transfer.ActionCheckout, "")).Header().Get("Location"))
}

func TestCookieMiddleware(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	accepted := f.follow(f.link(t, transfer.ActionCart, ""))

	var got *session.Session
	handler := f.h.CookieMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(accepted.Result().Cookies()[0])
	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, got)
	assert.Equal(t, f.sess.Key, got.Key)

	got = nil
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Nil(t, got)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	codec, err := token.New(secret)
	require.NoError(t, err)
	signer, err := nonce.New(secret)
	require.NoError(t, err)
	jar, err := cookie.New([]string{secret})
	require.NoError(t, err)

	h := transfer.NewFromConfig(transfer.Config{
		Path:         "/handoff",
		FallbackURL:  "/home",
		Destinations: map[string]string{"cart": "/basket"},
	}, codec, signer, session.NewMemoryStore(0), session.NewCookieTransport(jar, cookieName, false))

	assert.Equal(t, "/handoff", h.Path())
	assert.Equal(t, []string{"cart"}, h.Actions())

	link, err := h.Link(token.Identity{SessionKey: "k", ClientID: "c"}, "cart", "")
	require.NoError(t, err)
	assert.Regexp(t, `^/handoff\?`, link)
}
