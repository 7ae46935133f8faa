package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

const exposeHeadersHeader = "Access-Control-Expose-Headers"

// Middleware resolves the session of every request and binds it to the
// request context. Newly issued tokens are written to the response before the
// handler runs. A failing store short-circuits the request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	exposed := m.ExposedHeaders()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exposeHeaders(w.Header(), exposed)

		sess, _, err := m.Resolve(r.Context(), w, r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireCustomer rejects requests whose session has no customer attached.
// It must run after Middleware.
func (m *Manager) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if !ok || !sess.IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, "session.unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.ErrorContext(r.Context(), "session resolution failed", logger.Error(err))

	if errors.Is(err, ErrStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, ErrStoreUnavailable.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "session.internal_error")
}

// exposeHeaders appends names missing from Access-Control-Expose-Headers.
func exposeHeaders(h http.Header, names []string) {
	if len(names) == 0 {
		return
	}

	present := make(map[string]struct{})
	for _, v := range h.Values(exposeHeadersHeader) {
		for name := range strings.SplitSeq(v, ",") {
			present[http.CanonicalHeaderKey(strings.TrimSpace(name))] = struct{}{}
		}
	}

	var missing []string
	for _, name := range names {
		if _, ok := present[http.CanonicalHeaderKey(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		h.Add(exposeHeadersHeader, strings.Join(missing, ", "))
	}
}

func writeError(w http.ResponseWriter, status int, key string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": key})
}
