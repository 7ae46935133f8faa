package transfer

// Actions understood by default.
const (
	ActionCart     = "cart"
	ActionCheckout = "checkout"
	ActionAccount  = "account"
)

// Query parameters of a transfer link.
const (
	ParamSessionID  = "session_id"
	ParamAction     = "action"
	ParamNonce      = "nonce"
	ParamRedirectTo = "redirect_to"
)

// Config holds transfer handshake configuration.
type Config struct {
	// BaseURL is prepended to Path in generated links; empty yields relative links.
	BaseURL     string `env:"TRANSFER_BASE_URL" envDefault:""`
	Path        string `env:"TRANSFER_PATH" envDefault:"/session/transfer"`
	FallbackURL string `env:"TRANSFER_FALLBACK_URL" envDefault:"/"`

	// Destinations maps action names to the page each one lands on.
	Destinations map[string]string `env:"TRANSFER_DESTINATIONS" envDefault:"cart:/cart,checkout:/checkout,account:/my-account" envSeparator:"," envKeyValSeparator:":"`

	// ReplayGuard makes every nonce single-use. The guard back-end is chosen
	// by the caller.
	ReplayGuard bool `env:"TRANSFER_REPLAY_GUARD" envDefault:"false"`

	// ReplayGuardCapacity bounds the in-memory guard.
	ReplayGuardCapacity int `env:"TRANSFER_REPLAY_GUARD_CAPACITY" envDefault:"100000"`
}

// DefaultDestinations returns the built-in action destinations.
func DefaultDestinations() map[string]string {
	return map[string]string{
		ActionCart:     "/cart",
		ActionCheckout: "/checkout",
		ActionAccount:  "/my-account",
	}
}

// NewFromConfig creates a Handshake from the provided Config.
func NewFromConfig(cfg Config, codec Codec, signer Signer, store Store, cookies Transport, opts ...Option) *Handshake {
	configOpts := []Option{
		WithBaseURL(cfg.BaseURL),
		WithPath(cfg.Path),
		WithFallbackURL(cfg.FallbackURL),
	}
	if len(cfg.Destinations) > 0 {
		configOpts = append(configOpts, WithDestinations(cfg.Destinations))
	}

	return New(codec, signer, store, cookies, append(configOpts, opts...)...)
}
