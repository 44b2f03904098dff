package config

import (
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// Server holds the listener and process-level settings.
type Server struct {
	AppName   string `env:"APP_NAME" envDefault:"Edge Auth"`
	Port      string `env:"PORT" envDefault:"8080"`
	AdminPort string `env:"ADMIN_PORT" envDefault:"8081"`
	OriginURL string `env:"ORIGIN_URL"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Env       string `env:"ENV" envDefault:"DEV"`
}

// ListenAddr returns the gateway listener address in ":port" form.
func (s Server) ListenAddr() string {
	return listenAddr(s.Port)
}

// AdminListenAddr returns the admin listener address in ":port" form.
func (s Server) AdminListenAddr() string {
	return listenAddr(s.AdminPort)
}

func listenAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func (s Server) validate() error {
	if s.OriginURL == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "ORIGIN_URL is required")
	}
	origin, err := url.Parse(s.OriginURL)
	if err != nil || !origin.IsAbs() || origin.Host == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "ORIGIN_URL %q is not an absolute URL", s.OriginURL)
	}
	if s.Port == s.AdminPort {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "PORT and ADMIN_PORT must differ")
	}
	return nil
}
