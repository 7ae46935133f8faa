// Package session lets a stateless API emulate a shopping-cart session.
//
// A Manager resolves the session of every request from a signed token carried
// in a designated HTTP header (or, for browser pages, a cookie), creates a new
// anonymous session when the token is missing or no longer valid, and hands
// newly issued tokens back to the client in the same header. Session records
// live in a pluggable Store; the token itself is never persisted.
//
// # Architecture
//
//	┌────────┐   token   ┌────────────┐
//	│ Client │ ────────► │  Transport │ (header, cookie, composite)
//	└────────┘           └────────────┘
//	       ▲                   │
//	       │                   ▼
//	┌─────────────────────────────────┐      ┌───────┐
//	│            Manager              │ ───► │ Codec │ (pkg/token)
//	└─────────────────────────────────┘      └───────┘
//	       │   get / save               │ mutations
//	       ▼                            ▼
//	┌────────┐                    ┌──────────────┐
//	│ Store  │ (memory, redis,    │ keylock.Queue│
//	└────────┘  postgres)         └──────────────┘
//
// # Usage
//
//	codec, _ := token.New(secret)
//	manager := session.New(codec,
//	    session.WithStore(session.NewMemoryStore(5*time.Minute)),
//	    session.WithTransport(session.NewHeaderTransport("Storefront-Session")),
//	    session.WithQueue(queue),
//	)
//
//	r := chi.NewRouter()
//	r.Use(manager.Middleware)
//	r.Get("/cart", func(w http.ResponseWriter, r *http.Request) {
//	    sess := session.MustFromContext(r.Context())
//	    ...
//	})
//
// # Failure semantics
//
// A missing, malformed, expired or foreign token is never an error: the
// request simply gets a fresh anonymous session. A failing Store is always an
// error (ErrStoreUnavailable) and the middleware answers 503 rather than
// continuing without a session.
package session
