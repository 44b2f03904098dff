package config

import (
	"time"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// Security holds the session token and cookie settings, including the RSA
// key material the gateway signs and verifies with.
type Security struct {
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"1h"`
	CookieName      string        `env:"COOKIE_NAME" envDefault:"edge_auth_session"`
	KeyID           string        `env:"KEY_ID" envDefault:"edge-auth-1"`
	PrivateKeyFile  string        `env:"PRIVATE_KEY_FILE"`
	PublicKeyFile   string        `env:"PUBLIC_KEY_FILE"`
}

func (s Security) validate() error {
	if s.SessionDuration <= 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "SESSION_DURATION %s must be positive", s.SessionDuration)
	}
	if s.CookieName == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "COOKIE_NAME must not be empty")
	}
	if s.PrivateKeyFile == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "PRIVATE_KEY_FILE is required")
	}
	return nil
}
