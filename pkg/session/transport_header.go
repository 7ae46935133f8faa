package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport implements Transport using HTTP headers
type HeaderTransport struct {
	headerName string
	prefix     string
}

// NewHeaderTransport creates a new header-based transport.
// The value is prefixed with "Session " unless WithHeaderPrefix says otherwise.
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		headerName: http.CanonicalHeaderKey(headerName),
		prefix:     "Session ",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// GetToken extracts the session token from the header
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.headerName))
	if value == "" {
		return "", ErrSessionNotFound
	}

	// Prefix is optional on the way in and may stand alone after trimming.
	if scheme := strings.TrimSpace(t.prefix); scheme != "" {
		if rest, ok := strings.CutPrefix(value, scheme); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			value = strings.TrimSpace(rest)
		}
	}
	if value == "" {
		return "", ErrSessionNotFound
	}

	return value, nil
}

// SetToken sends the session token in the response header
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set(t.headerName, t.prefix+token)

	if ttl > 0 {
		w.Header().Set(t.expiresHeader(), time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}

	return nil
}

// ClearToken removes the session header from the response
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.headerName)
	w.Header().Del(t.expiresHeader())
	return nil
}

// AllowedHeaders lists the request header read by the transport.
func (t *HeaderTransport) AllowedHeaders() []string {
	return []string{t.headerName}
}

// ExposedHeaders lists the response headers written by the transport.
func (t *HeaderTransport) ExposedHeaders() []string {
	return []string{t.headerName, t.expiresHeader()}
}

func (t *HeaderTransport) expiresHeader() string {
	return t.headerName + "-Expires"
}
