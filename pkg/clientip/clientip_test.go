package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/storefront/pkg/clientip"
)

func request(remote string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remote
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestResolverIP(t *testing.T) {
	tests := []struct {
		name     string
		resolver *clientip.Resolver
		remote   string
		headers  map[string]string
		want     string
	}{
		{"remote addr", clientip.New(), "192.0.2.1:5000", nil, "192.0.2.1"},
		{"remote addr without port", clientip.New(), "192.0.2.1", nil, "192.0.2.1"},
		{"cloudflare first", clientip.New(), "10.0.0.1:1", map[string]string{
			"CF-Connecting-IP": "203.0.113.7",
			"X-Forwarded-For":  "198.51.100.2",
		}, "203.0.113.7"},
		{"first valid forwarded entry", clientip.New(), "10.0.0.1:1", map[string]string{
			"X-Forwarded-For": "garbage, 198.51.100.2, 198.51.100.3",
		}, "198.51.100.2"},
		{"ipv4 mapped ipv6", clientip.New(), "10.0.0.1:1", map[string]string{
			"X-Real-IP": "::ffff:198.51.100.9",
		}, "198.51.100.9"},
		{"invalid headers fall back", clientip.New(), "[2001:db8::1]:443", map[string]string{
			"X-Forwarded-For": "unknown",
		}, "2001:db8::1"},
		{"custom header only", clientip.New("X-Client-IP"), "10.0.0.1:1", map[string]string{
			"X-Forwarded-For": "198.51.100.2",
			"X-Client-IP":     "203.0.113.5",
		}, "203.0.113.5"},
		{"direct ignores headers", clientip.NewDirect(), "10.0.0.1:1", map[string]string{
			"X-Forwarded-For": "198.51.100.2",
		}, "10.0.0.1"},
		{"nothing usable", clientip.NewDirect(), "pipe", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resolver.IP(request(tt.remote, tt.headers)))
		})
	}
}

func TestMiddleware(t *testing.T) {
	var got string
	h := clientip.New().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), request("192.0.2.44:1234", nil))
	assert.Equal(t, "192.0.2.44", got)
}

func TestNewFromConfig(t *testing.T) {
	r := request("10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.2"})

	assert.Equal(t, "198.51.100.2", clientip.NewFromConfig(clientip.Config{Headers: clientip.DefaultHeaders}).IP(r))
	assert.Equal(t, "10.0.0.1", clientip.NewFromConfig(clientip.Config{}).IP(r), "headers are not trusted by default")
	assert.Equal(t, "10.0.0.1", clientip.NewFromConfig(clientip.Config{Headers: []string{" ", ""}}).IP(r))
}
