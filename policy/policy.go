package policy

import (
	"context"

	"github.com/jrsteele09/go-edge-auth/idp"
	"github.com/jrsteele09/go-edge-auth/internal/config"
	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/internal/metrics"
)

// Policy decides whether an authenticated identity may reach the origin.
type Policy interface {
	// Authorize reports whether the viewer behind the assertion is allowed
	// in. An error means no decision could be made; callers must treat it
	// as a denial.
	Authorize(ctx context.Context, assertion *idp.Assertion) (bool, error)

	// Name identifies the policy in logs and metrics.
	Name() string
}

// New selects the authorization strategy from configuration. The choice is
// made once at startup.
func New(cfg config.Policy, m *metrics.Metrics) (Policy, error) {
	switch cfg.Method {
	case config.AuthMethodDomain:
		return NewHostedDomain(cfg.HostedDomain), nil
	case config.AuthMethodJSONLookup:
		return NewJSONLookup(cfg.LookupURL,
			WithTimeout(cfg.LookupTimeout),
			WithCacheTTL(cfg.LookupCacheTTL),
			WithMetrics(m),
		), nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "unknown authorization method %q", cfg.Method)
	}
}
