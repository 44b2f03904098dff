package config

import (
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// Authorization methods selectable via AUTH_METHOD.
const (
	AuthMethodDomain     = "domain"
	AuthMethodJSONLookup = "json-lookup"
)

// Policy selects and parameterizes the authorization strategy applied to
// authenticated identities.
type Policy struct {
	Method         string        `env:"AUTH_METHOD" envDefault:"domain"`
	HostedDomain   string        `env:"HOSTED_DOMAIN"`
	LookupURL      string        `env:"LOOKUP_URL"`
	LookupTimeout  time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"3s"`
	LookupCacheTTL time.Duration `env:"LOOKUP_CACHE_TTL" envDefault:"60s"`
}

func (p Policy) validate() error {
	switch p.Method {
	case AuthMethodDomain:
		if p.HostedDomain == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "AUTH_METHOD %q requires HOSTED_DOMAIN", p.Method)
		}
	case AuthMethodJSONLookup:
		if p.LookupURL == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "AUTH_METHOD %q requires LOOKUP_URL", p.Method)
		}
		lookup, err := url.Parse(p.LookupURL)
		if err != nil || !lookup.IsAbs() || lookup.Host == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "LOOKUP_URL %q is not an absolute URL", p.LookupURL)
		}
		if p.LookupTimeout <= 0 || p.LookupTimeout > 30*time.Second {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "LOOKUP_TIMEOUT %s is outside (0s, 30s]", p.LookupTimeout)
		}
		if p.LookupCacheTTL < 0 {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "LOOKUP_CACHE_TTL %s must not be negative", p.LookupCacheTTL)
		}
	default:
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "unknown AUTH_METHOD %q", p.Method)
	}
	return nil
}
