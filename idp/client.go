package idp

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
)

// googleJWKSURL is where Google publishes its ID token signing keys.
const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Config describes the gateway's registration with the identity provider.
// With no endpoint overrides the client talks to Google.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
	AuthURL      string
	TokenURL     string
	JWKSURL      string
	Scopes       []string
	Timeout      time.Duration

	// HostedDomainHint pre-selects the workspace account chooser at the
	// provider. It is a UX hint only, never an authorization decision.
	HostedDomainHint string
}

// Client runs the relying-party side of the authorization-code flow: it
// builds login redirects and exchanges callback codes for verified identity
// assertions.
type Client struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
	timeout      time.Duration
	domainHint   string
}

// New creates a provider client. No network calls happen here; provider
// endpoints are taken from the config or default to Google's.
func New(cfg Config) *Client {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" && cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "https://accounts.google.com"
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = googleJWKSURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email"}
	}

	httpClient := &http.Client{Timeout: timeout}

	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), httpClient), jwksURL)
	verifier := oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: cfg.ClientID})

	return &Client{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier:   verifier,
		httpClient: httpClient,
		timeout:    timeout,
		domainHint: cfg.HostedDomainHint,
	}
}

// AuthCodeURL builds the provider authorization URL the viewer is redirected
// to, carrying the signed state token.
func (c *Client) AuthCodeURL(state string) string {
	if c.domainHint != "" {
		return c.oauth2Config.AuthCodeURL(state, oauth2.SetAuthURLParam("hd", c.domainHint))
	}
	return c.oauth2Config.AuthCodeURL(state)
}

// Exchange redeems an authorization code for tokens, verifies the ID token
// against the provider's keys, and extracts the identity assertion. The
// outbound calls are bounded by the configured timeout on top of whatever
// deadline ctx already carries.
func (c *Client) Exchange(ctx context.Context, code string) (*Assertion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = oidc.ClientContext(ctx, c.httpClient)

	oauth2Token, err := c.oauth2Config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if apperrors.As(err, &retrieveErr) {
			return nil, apperrors.Wrapf(apperrors.ErrProviderRejected, "token endpoint returned %d", retrieveErr.Response.StatusCode)
		}
		return nil, apperrors.Wrapf(apperrors.ErrNetworkFailure, "token exchange failed: %v", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, apperrors.ErrMissingAssertion
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidAssertion, "ID token verification failed: %v", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		HostedDomain  string `json:"hd"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidAssertion, "failed to extract claims")
	}
	if claims.Email == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidAssertion, "ID token carries no email claim")
	}

	audience := ""
	if len(idToken.Audience) > 0 {
		audience = idToken.Audience[0]
	}

	return &Assertion{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		HostedDomain:  claims.HostedDomain,
		Issuer:        idToken.Issuer,
		Audience:      audience,
		ExpiresAt:     idToken.Expiry,
	}, nil
}
