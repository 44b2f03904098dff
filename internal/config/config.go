package config

import (
	"github.com/caarlos0/env/v11"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// Config is the gateway's complete runtime configuration, assembled from the
// environment once at startup and never reloaded.
type Config struct {
	Server   Server
	OAuth    OAuth
	Security Security
	Policy   Policy
}

// New loads configuration from the environment and validates it. A bad
// environment is fatal: the gateway refuses to start rather than run with a
// partial or contradictory setup.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, apperrors.Wrapf(err, "failed to parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section. It returns the first problem found, wrapped
// around ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.OAuth.validate(); err != nil {
		return err
	}
	if err := c.Security.validate(); err != nil {
		return err
	}
	return c.Policy.validate()
}
