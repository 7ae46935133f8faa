package session

import "time"

// Store back-end names accepted by Config.Store.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds session configuration.
type Config struct {
	// HeaderName carries the session token on requests and responses.
	HeaderName   string `env:"SESSION_HEADER" envDefault:"Storefront-Session"`
	HeaderPrefix string `env:"SESSION_HEADER_PREFIX" envDefault:"Session "`

	// CookieName is used by the stateful (browser) side after a transfer.
	CookieName    string `env:"SESSION_COOKIE_NAME" envDefault:"storefront_session"`
	SecureCookies bool   `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	Store string `env:"SESSION_STORE" envDefault:"memory"`

	AnonIdleTimeout time.Duration `env:"SESSION_ANON_IDLE_TIMEOUT" envDefault:"48h"`
	AnonMaxLifetime time.Duration `env:"SESSION_ANON_MAX_LIFETIME" envDefault:"168h"`

	AuthIdleTimeout time.Duration `env:"SESSION_AUTH_IDLE_TIMEOUT" envDefault:"168h"`
	AuthMaxLifetime time.Duration `env:"SESSION_AUTH_MAX_LIFETIME" envDefault:"720h"`

	// ActivityUpdateThreshold is the minimum time between activity updates
	ActivityUpdateThreshold time.Duration `env:"SESSION_ACTIVITY_UPDATE_THRESHOLD" envDefault:"5m"`

	// CleanupInterval for expired sessions (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		HeaderName:              "Storefront-Session",
		HeaderPrefix:            "Session ",
		CookieName:              "storefront_session",
		Store:                   StoreMemory,
		AnonIdleTimeout:         48 * time.Hour,
		AnonMaxLifetime:         7 * 24 * time.Hour,
		AuthIdleTimeout:         7 * 24 * time.Hour,
		AuthMaxLifetime:         30 * 24 * time.Hour,
		ActivityUpdateThreshold: 5 * time.Minute,
		CleanupInterval:         5 * time.Minute,
	}
}

// GetTimeouts returns idle and max lifetime based on session state
func (c Config) GetTimeouts(isAuthenticated bool) (idle, max time.Duration) {
	if isAuthenticated {
		return c.AuthIdleTimeout, c.AuthMaxLifetime
	}
	return c.AnonIdleTimeout, c.AnonMaxLifetime
}

// NewFromConfig creates a new Manager from the provided Config.
// The transport defaults to a header transport named by cfg.HeaderName.
func NewFromConfig(cfg Config, codec Codec, opts ...Option) *Manager {
	configOpts := []Option{
		WithConfig(cfg),
		WithTransport(NewHeaderTransport(cfg.HeaderName, WithHeaderPrefix(cfg.HeaderPrefix))),
	}

	configOpts = append(configOpts, opts...)

	return New(codec, configOpts...)
}
