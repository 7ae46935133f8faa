package token

import "time"

// Config holds token codec configuration.
type Config struct {
	Secret string        `env:"SESSION_TOKEN_SECRET,required"`
	Issuer string        `env:"SESSION_TOKEN_ISSUER" envDefault:"storefront"`
	TTL    time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"48h"`
	// Leeway tolerates clock skew between replicas when checking exp/nbf.
	Leeway time.Duration `env:"SESSION_TOKEN_LEEWAY" envDefault:"0s"`
}

// NewFromConfig creates a Codec from the provided Config.
// Only non-zero values from the config are applied.
func NewFromConfig(cfg Config, opts ...Option) (*Codec, error) {
	configOpts := make([]Option, 0, 3)
	if cfg.Issuer != "" {
		configOpts = append(configOpts, WithIssuer(cfg.Issuer))
	}
	if cfg.TTL > 0 {
		configOpts = append(configOpts, WithTTL(cfg.TTL))
	}
	if cfg.Leeway > 0 {
		configOpts = append(configOpts, WithLeeway(cfg.Leeway))
	}

	configOpts = append(configOpts, opts...)

	return New(cfg.Secret, configOpts...)
}
