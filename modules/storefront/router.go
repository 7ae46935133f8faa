package storefront

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/clientip"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/requestid"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/transfer"
)

// RouterOptions wires the API. Sessions, Carts and Transfer are required.
type RouterOptions struct {
	Sessions *session.Manager
	Carts    *cart.Service
	Transfer *transfer.Handshake

	// Health holds the readiness checks served on /health.
	Health map[string]httpserver.Check

	// TransferLimiter limits transfer attempts per client address. Nil
	// disables limiting.
	TransferLimiter ratelimiter.Limiter
	// ClientIP resolves the address TransferLimiter keys on. Defaults to
	// the connection address.
	ClientIP *clientip.Resolver

	// AllowedOrigins of cross-origin API clients. Empty allows any origin.
	AllowedOrigins []string

	Logger *slog.Logger
}

// Router builds the storefront API.
//
//	r := chi.NewRouter()
//	r.Mount("/", storefront.Router(storefront.RouterOptions{
//		Sessions: sessions,
//		Carts:    carts,
//		Transfer: handshake,
//	}))
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: append([]string{"Accept", "Content-Type", requestid.Header}, opts.Sessions.AllowedHeaders()...),
		ExposedHeaders: append([]string{requestid.Header}, opts.Sessions.ExposedHeaders()...),
		MaxAge:         300,
	}))

	r.Get("/health", httpserver.HealthHandler(log, opts.Health))

	// Browser side: no session header, the transfer sets a cookie.
	r.With(transferLimit(opts, log)).Method(http.MethodGet, opts.Transfer.Path(), opts.Transfer)
	r.With(opts.Transfer.CookieMiddleware).Get("/web/cart", WebCartHandler(log))

	carts := NewCartHandler(opts.Carts, log)
	sessions := NewSessionHandler(opts.Sessions, opts.Transfer, log)

	r.Group(func(api chi.Router) {
		api.Use(opts.Sessions.Middleware)

		api.Mount("/cart", carts.Handle())

		api.Post("/session/rotate", sessions.rotate)
		api.Delete("/session", sessions.destroy)
		api.Get("/session/links", sessions.links)
	})

	return r
}

func transferLimit(opts RouterOptions, log *slog.Logger) func(http.Handler) http.Handler {
	if opts.TransferLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	ips := opts.ClientIP
	if ips == nil {
		ips = clientip.NewDirect()
	}
	denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, log, ratelimiter.ErrLimitExceeded)
	})

	return ratelimiter.Middleware(opts.TransferLimiter, ips.IP,
		ratelimiter.WithDeniedHandler(denied),
		ratelimiter.WithLogger(log),
	)
}

// Config holds API settings loaded from the environment.
type Config struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}
