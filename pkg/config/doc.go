// Package config loads typed configuration from environment variables.
//
// Every package of the service declares its own Config struct with env and
// envDefault tags (github.com/caarlos0/env) and a NewFromConfig constructor.
// The entry point loads them with Load, which reads a local .env file first
// (github.com/joho/godotenv) and caches each type:
//
//	config.MustLoadEnv(".env.local")
//
//	var tokenCfg token.Config
//	config.MustLoad(&tokenCfg)
//
//	codec, err := token.NewFromConfig(tokenCfg)
//
// Variables already present in the environment take precedence over .env
// values.
package config
