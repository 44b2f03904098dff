package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-edge-auth/idp"
	"github.com/jrsteele09/go-edge-auth/policy"
)

func newAssertion(email, hostedDomain string, verified bool) *idp.Assertion {
	return &idp.Assertion{
		Subject:       "provider-subject-1",
		Email:         email,
		EmailVerified: verified,
		HostedDomain:  hostedDomain,
		Issuer:        "https://accounts.google.com",
		Audience:      "gateway-client-id",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
}

func TestHostedDomain(t *testing.T) {
	domainPolicy := policy.NewHostedDomain("example.com")

	t.Run("allows an exact domain match", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), newAssertion("alice@example.com", "example.com", true))
		require.NoError(t, err)
		require.True(t, allowed)
	})

	t.Run("refuses a different domain", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), newAssertion("mallory@evil.com", "evil.com", true))
		require.NoError(t, err)
		require.False(t, allowed)
	})

	t.Run("refuses a case variant of the domain", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), newAssertion("alice@example.com", "Example.com", true))
		require.NoError(t, err)
		require.False(t, allowed)
	})

	t.Run("refuses an unverified email", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), newAssertion("alice@example.com", "example.com", false))
		require.NoError(t, err)
		require.False(t, allowed)
	})

	t.Run("refuses an assertion without the claim", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), newAssertion("alice@gmail.com", "", true))
		require.NoError(t, err)
		require.False(t, allowed)
	})

	t.Run("refuses a nil assertion", func(t *testing.T) {
		allowed, err := domainPolicy.Authorize(context.Background(), nil)
		require.NoError(t, err)
		require.False(t, allowed)
	})

	t.Run("names itself for logs", func(t *testing.T) {
		require.Equal(t, "hosted-domain", domainPolicy.Name())
	})
}
