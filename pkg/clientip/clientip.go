package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are the usual headers set by a CDN or load balancer, for
// use behind an edge that overwrites them.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// Resolver finds the client address of a request. Only deploy it with
// headers set by a proxy you control, otherwise clients pick their own IP.
type Resolver struct {
	headers []string
}

// New creates a Resolver that trusts headers in the given order, or
// DefaultHeaders when none are given.
func New(headers ...string) *Resolver {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return &Resolver{headers: headers}
}

// Config selects the headers trusted to carry the client address. Empty
// means only the connection address is used; list headers only when every
// request passes an edge that overwrites them.
type Config struct {
	Headers []string `env:"CLIENT_IP_HEADERS" envSeparator:","`
}

// NewFromConfig creates a Resolver from the provided Config.
func NewFromConfig(cfg Config) *Resolver {
	headers := make([]string, 0, len(cfg.Headers))
	for _, h := range cfg.Headers {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return NewDirect()
	}
	return New(headers...)
}

// NewDirect creates a Resolver that only looks at RemoteAddr.
func NewDirect() *Resolver {
	return &Resolver{}
}

// IP returns the normalized client address or an empty string.
// For X-Forwarded-For style lists the first valid entry wins.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		for _, value := range r.Header.Values(h) {
			for candidate := range strings.SplitSeq(value, ",") {
				if ip := parse(candidate); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

// Middleware stores the client address in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.IP(r))))
	})
}

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

func parse(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
