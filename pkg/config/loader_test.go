package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/config"
)

type lockConfig struct {
	Timeout time.Duration `env:"STOREFRONT_TEST_LOCK_TIMEOUT" envDefault:"10s"`
	Backend string        `env:"STOREFRONT_TEST_LOCK_BACKEND" envDefault:"memory"`
}

type requiredConfig struct {
	Secret string `env:"STOREFRONT_TEST_SECRET,required"`
}

type fileConfig struct {
	Value    string `env:"STOREFRONT_TEST_FILE_VALUE"`
	Priority string `env:"STOREFRONT_TEST_PRIORITY"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.Reset()
		var cfg lockConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, "memory", cfg.Backend)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("STOREFRONT_TEST_LOCK_TIMEOUT", "3s")
		t.Setenv("STOREFRONT_TEST_LOCK_BACKEND", "redis")

		var cfg lockConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, "redis", cfg.Backend)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("STOREFRONT_TEST_LOCK_BACKEND", "redis")
		var first lockConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("STOREFRONT_TEST_LOCK_BACKEND", "memory")
		var second lockConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "redis", second.Backend)

		config.Reset()
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "memory", second.Backend)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.Reset()
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *lockConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoadEnvFile(t *testing.T) {
	config.Reset()
	t.Setenv("STOREFRONT_TEST_PRIORITY", "from_env")

	require.NoError(t, config.LoadEnv("testdata/.env.test"))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from_file", cfg.Value)
	assert.Equal(t, "from_env", cfg.Priority)
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/missing.env")
	require.ErrorIs(t, err, config.ErrEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}
