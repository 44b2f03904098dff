package policy

import (
	"context"

	"github.com/jrsteele09/go-edge-auth/idp"
)

// HostedDomain authorizes viewers whose Google Workspace hosted-domain claim
// matches the configured domain exactly. It makes no network calls.
type HostedDomain struct {
	domain string
}

// NewHostedDomain creates a hosted-domain policy for the given domain.
func NewHostedDomain(domain string) *HostedDomain {
	return &HostedDomain{domain: domain}
}

func (h *HostedDomain) Name() string {
	return "hosted-domain"
}

// Authorize matches the hosted-domain claim byte for byte. Unverified emails
// and assertions without the claim are refused.
func (h *HostedDomain) Authorize(_ context.Context, assertion *idp.Assertion) (bool, error) {
	if assertion == nil || !assertion.EmailVerified {
		return false, nil
	}
	return assertion.HostedDomain != "" && assertion.HostedDomain == h.domain, nil
}
