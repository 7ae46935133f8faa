package keylock

import "time"

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds mutation queue configuration.
type Config struct {
	Backend string        `env:"MUTATION_LOCK_BACKEND" envDefault:"memory"`
	Timeout time.Duration `env:"MUTATION_LOCK_TIMEOUT" envDefault:"10s"`

	// Redis back-end only.
	RedisPrefix string        `env:"MUTATION_LOCK_REDIS_PREFIX" envDefault:"storefront:lock:"`
	Lease       time.Duration `env:"MUTATION_LOCK_LEASE" envDefault:"30s"`
}

// NewFromConfig creates a Queue around the given locker using cfg.Timeout.
func NewFromConfig(cfg Config, locker Locker, opts ...Option) *Queue {
	configOpts := make([]Option, 0, 1)
	if cfg.Timeout > 0 {
		configOpts = append(configOpts, WithTimeout(cfg.Timeout))
	}
	return New(locker, append(configOpts, opts...)...)
}
