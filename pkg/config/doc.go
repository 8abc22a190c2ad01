// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11. Each
// config struct type is parsed once per process and cached; later calls to
// Load return the cached copy. Structs whose pointer implements Validator are
// checked after parsing, and a failure is reported as ErrInvalidConfig.
//
//	type AppConfig struct {
//		Env  string `env:"APP_ENV" envDefault:"development"`
//		Port int    `env:"HTTP_PORT" envDefault:"8080"`
//	}
//
//	var cfg AppConfig
//	config.MustLoad(&cfg)
//
// LoadEnv reads one or more .env files before parsing; later files override
// earlier ones. ResetCache and ForceReload exist for tests.
package config
