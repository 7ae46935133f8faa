package nonce

import "time"

// Config holds nonce signer configuration.
type Config struct {
	Secret string        `env:"NONCE_SECRET,required"`
	Tick   time.Duration `env:"NONCE_TICK" envDefault:"12h"`
}

// NewFromConfig creates a Signer from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) (*Signer, error) {
	configOpts := make([]Option, 0, 1)
	if cfg.Tick != 0 {
		configOpts = append(configOpts, WithTick(cfg.Tick))
	}
	return New(cfg.Secret, append(configOpts, opts...)...)
}
