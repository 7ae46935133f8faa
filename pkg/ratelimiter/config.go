package ratelimiter

import "time"

// Config holds rate limiter configuration loaded from the environment.
type Config struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"20"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"3s"`

	// MaxKeys bounds the number of buckets the memory store tracks.
	MaxKeys int `env:"RATE_LIMIT_MAX_KEYS" envDefault:"10000"`

	RedisPrefix string `env:"RATE_LIMIT_REDIS_PREFIX" envDefault:"storefront:ratelimit:"`
}

// Limits returns the bucket shape described by the config.
func (c Config) Limits() Limits {
	return Limits{
		Capacity:       c.Capacity,
		RefillRate:     c.RefillRate,
		RefillInterval: c.RefillInterval,
	}
}
