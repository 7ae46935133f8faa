package storefront

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
)

type addItemRequest struct {
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id"`
	Quantity    int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	*cart.Cart
	Count int `json:"count"`
}

func newCartResponse(c *cart.Cart) cartResponse {
	return cartResponse{Cart: c, Count: c.Count()}
}

// CartHandler serves the cart of the request's session. Reads come from the
// session snapshot, writes go through the mutation queue.
type CartHandler struct {
	carts  *cart.Service
	logger *slog.Logger
}

func NewCartHandler(carts *cart.Service, log *slog.Logger) *CartHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CartHandler{carts: carts, logger: log}
}

// Handle returns the cart routes. They expect session.Middleware upstream.
func (h *CartHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Delete("/", h.empty)
	r.Post("/items", h.add)
	r.Patch("/items/{key}", h.update)
	r.Delete("/items/{key}", h.remove)
	r.Post("/items/{key}/restore", h.restore)
	return r
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, session.ErrNoSession)
		return
	}
	c, err := cart.Load(sess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.mutate(w, r, http.StatusCreated, func(key string) (*cart.Cart, error) {
		return h.carts.AddItem(r.Context(), key, req.ProductID, req.VariationID, req.Quantity)
	})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.mutate(w, r, http.StatusOK, func(key string) (*cart.Cart, error) {
		return h.carts.UpdateQuantity(r.Context(), key, chi.URLParam(r, "key"), req.Quantity)
	})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(key string) (*cart.Cart, error) {
		return h.carts.RemoveItem(r.Context(), key, chi.URLParam(r, "key"))
	})
}

func (h *CartHandler) restore(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(key string) (*cart.Cart, error) {
		return h.carts.RestoreItem(r.Context(), key, chi.URLParam(r, "key"))
	})
}

func (h *CartHandler) empty(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(key string) (*cart.Cart, error) {
		return h.carts.EmptyCart(r.Context(), key)
	})
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(sessionKey string) (*cart.Cart, error)) {
	key, ok := session.KeyFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, session.ErrNoSession)
		return
	}
	c, err := fn(key)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, newCartResponse(c))
}
