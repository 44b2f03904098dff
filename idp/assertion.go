package idp

import "time"

// Assertion is the verified identity extracted from a provider ID token.
// It is the only thing the rest of the gateway learns about a viewer:
// authorization policies consume it, the session token records its email.
type Assertion struct {
	Subject       string
	Email         string
	EmailVerified bool
	HostedDomain  string
	Issuer        string
	Audience      string
	ExpiresAt     time.Time
}
