package config

import (
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// OAuth holds the relying-party registration with the identity provider.
// The endpoint overrides exist for tests and non-Google deployments; left
// empty, the provider defaults to Google.
type OAuth struct {
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	RedirectURI  string        `env:"REDIRECT_URI"`
	Issuer       string        `env:"IDP_ISSUER" envDefault:"https://accounts.google.com"`
	AuthURL      string        `env:"IDP_AUTH_URL"`
	TokenURL     string        `env:"IDP_TOKEN_URL"`
	JWKSURL      string        `env:"IDP_JWKS_URL"`
	Scopes       []string      `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email"`
	Timeout      time.Duration `env:"IDP_TIMEOUT" envDefault:"3s"`
}

// CallbackPath returns the path component of the registered redirect URI.
// Requests to this path on the gateway listener are the OAuth callback.
func (o OAuth) CallbackPath() string {
	redirect, err := url.Parse(o.RedirectURI)
	if err != nil {
		return ""
	}
	return redirect.Path
}

func (o OAuth) validate() error {
	if o.ClientID == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "CLIENT_ID is required")
	}
	if o.ClientSecret == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "CLIENT_SECRET is required")
	}
	if o.RedirectURI == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "REDIRECT_URI is required")
	}
	redirect, err := url.Parse(o.RedirectURI)
	if err != nil || !redirect.IsAbs() || redirect.Host == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "REDIRECT_URI %q is not an absolute URL", o.RedirectURI)
	}
	if redirect.Path == "" || redirect.Path == "/" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "REDIRECT_URI %q needs a dedicated path", o.RedirectURI)
	}
	if o.Timeout <= 0 || o.Timeout > 30*time.Second {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "IDP_TIMEOUT %s is outside (0s, 30s]", o.Timeout)
	}
	return nil
}
