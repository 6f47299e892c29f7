// Package config loads typed configuration from environment variables.
//
// A .env file in the working directory is loaded once via godotenv, then
// struct fields are filled by caarlos0/env using `env` and `envDefault` tags.
// Each configuration type is parsed on first use and cached:
//
//	type Config struct {
//		Addr string        `env:"SERVER_ADDR" envDefault:":8080"`
//		TTL  time.Duration `env:"CORRELATION_RETENTION" envDefault:"10m"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning an error and is meant for main.
package config
