/*
Package config loads server configuration.

PURPOSE:
  Centralizes every tunable of the server binary: HTTP listen port,
  SQLite database path, JWT signing secret and token lifetime, and the
  login credentials. Values are read with Viper in priority order:

    1. Environment variables (VEGETAL_ prefix, e.g. VEGETAL_HTTP_PORT)
    2. Optional config file (vegetal.yaml in . or ./config)
    3. Built-in defaults

CREDENTIALS:
  "users" is a username -> password map. Passwords are plaintext here
  and bcrypt-hashed at startup by api.NewAuth; they never reach the
  request path in clear form. The defaults mirror the two-user gate of
  the reference deployment and MUST be overridden outside development.

SEE ALSO:
  - cmd/server/main.go: Consumer
  - api/auth.go: Hashing and token issuance
*/
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server binary needs to start.
type Config struct {
	HTTPPort  int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
	// Users maps usernames to plaintext passwords supplied by the operator.
	Users map[string]string
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Load reads configuration from the environment and an optional
// vegetal.yaml file. Missing values fall back to development defaults;
// an empty JWT secret is an error because tokens could not be signed.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 8080)
	v.SetDefault("db_path", "vegetal.db")
	v.SetDefault("jwt_secret", "dev-only-secret")
	v.SetDefault("token_ttl", "12h")
	v.SetDefault("users", map[string]string{
		"mestre":   "chave-do-mestre",
		"auxiliar": "chave-do-auxiliar",
	})

	v.SetConfigName("vegetal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VEGETAL")
	v.AutomaticEnv()

	cfg := Config{
		HTTPPort:  v.GetInt("http_port"),
		DBPath:    v.GetString("db_path"),
		JWTSecret: v.GetString("jwt_secret"),
		TokenTTL:  v.GetDuration("token_ttl"),
		Users:     v.GetStringMapString("users"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt_secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token_ttl must be positive, got %s", cfg.TokenTTL)
	}
	if len(cfg.Users) == 0 {
		return Config{}, fmt.Errorf("at least one user credential is required")
	}
	return cfg, nil
}
