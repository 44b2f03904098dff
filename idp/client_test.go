package idp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/idp"
	"github.com/jrsteele09/go-edge-auth/token/keys"
)

const (
	testClientID     = "gateway-client-id"
	testClientSecret = "gateway-client-secret"
	testRedirectURL  = "https://app.example.com/oauth2/callback"
	testViewerEmail  = "alice@example.com"
)

// providerFixture is a stub identity provider: a token endpoint plus the JWKS
// the provider's ID tokens verify against.
type providerFixture struct {
	server *httptest.Server
	signer *keys.KeyPairSigner
	mux    *http.ServeMux
}

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()

	keyPair, err := keys.GenerateRSAKeyPair("provider-key", 2048)
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(keyPair)

	jwks, err := signer.GetJWKS()
	require.NoError(t, err)
	jwksBody, err := json.Marshal(jwks)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /keys", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksBody)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &providerFixture{server: server, signer: signer, mux: mux}
}

func (p *providerFixture) clientConfig() idp.Config {
	return idp.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RedirectURL:  testRedirectURL,
		Issuer:       p.server.URL,
		AuthURL:      p.server.URL + "/auth",
		TokenURL:     p.server.URL + "/token",
		JWKSURL:      p.server.URL + "/keys",
		Scopes:       []string{"openid", "email"},
		Timeout:      2 * time.Second,
	}
}

// mintIDToken signs an ID token the way the stub provider would.
func (p *providerFixture) mintIDToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()

	merged := jwtlib.MapClaims{
		"iss":            p.server.URL,
		"aud":            testClientID,
		"sub":            "provider-subject-1",
		"email":          testViewerEmail,
		"email_verified": true,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		merged[k] = v
	}

	raw, err := p.signer.Sign(merged)
	require.NoError(t, err)
	return raw
}

// serveToken wires the stub token endpoint to return the given ID token for
// any authorization code.
func (p *providerFixture) serveToken(idToken string) {
	p.mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.FormValue("grant_type") != "authorization_code" || r.FormValue("code") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}

		response := map[string]any{
			"access_token": "stub-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if idToken != "" {
			response["id_token"] = idToken
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
}

func TestAuthCodeURL(t *testing.T) {
	fixture := newProviderFixture(t)

	t.Run("carries the registration and state", func(t *testing.T) {
		client := idp.New(fixture.clientConfig())

		loginURL, err := url.Parse(client.AuthCodeURL("signed-state-token"))
		require.NoError(t, err)
		require.Equal(t, "/auth", loginURL.Path)

		query := loginURL.Query()
		require.Equal(t, "code", query.Get("response_type"))
		require.Equal(t, testClientID, query.Get("client_id"))
		require.Equal(t, testRedirectURL, query.Get("redirect_uri"))
		require.Equal(t, "signed-state-token", query.Get("state"))
		require.Contains(t, query.Get("scope"), "openid")
		require.Contains(t, query.Get("scope"), "email")
	})

	t.Run("adds the hosted-domain hint when configured", func(t *testing.T) {
		cfg := fixture.clientConfig()
		cfg.HostedDomainHint = "example.com"
		client := idp.New(cfg)

		loginURL, err := url.Parse(client.AuthCodeURL("signed-state-token"))
		require.NoError(t, err)
		require.Equal(t, "example.com", loginURL.Query().Get("hd"))
	})
}

func TestExchange(t *testing.T) {
	t.Run("returns the assertion from a valid ID token", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.serveToken(fixture.mintIDToken(t, jwtlib.MapClaims{"hd": "example.com"}))
		client := idp.New(fixture.clientConfig())

		assertion, err := client.Exchange(context.Background(), "auth-code")
		require.NoError(t, err)
		require.Equal(t, testViewerEmail, assertion.Email)
		require.True(t, assertion.EmailVerified)
		require.Equal(t, "example.com", assertion.HostedDomain)
		require.Equal(t, "provider-subject-1", assertion.Subject)
		require.Equal(t, testClientID, assertion.Audience)
	})

	t.Run("maps provider rejections", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		})
		client := idp.New(fixture.clientConfig())

		_, err := client.Exchange(context.Background(), "expired-code")
		require.ErrorIs(t, err, apperrors.ErrProviderRejected)
	})

	t.Run("maps transport failures", func(t *testing.T) {
		fixture := newProviderFixture(t)
		cfg := fixture.clientConfig()

		downServer := httptest.NewServer(http.NotFoundHandler())
		cfg.TokenURL = downServer.URL + "/token"
		downServer.Close()

		client := idp.New(cfg)
		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	})

	t.Run("times out a stalled provider", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		})
		cfg := fixture.clientConfig()
		cfg.Timeout = 100 * time.Millisecond
		client := idp.New(cfg)

		started := time.Now()
		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
		require.Less(t, time.Since(started), 2*time.Second)
	})

	t.Run("rejects a response without an ID token", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.serveToken("")
		client := idp.New(fixture.clientConfig())

		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrMissingAssertion)
	})

	t.Run("rejects an ID token signed by an unknown key", func(t *testing.T) {
		fixture := newProviderFixture(t)

		rogueKeyPair, err := keys.GenerateRSAKeyPair("rogue-key", 2048)
		require.NoError(t, err)
		rogueSigner := keys.NewKeyPairSigner(rogueKeyPair)
		rogueToken, err := rogueSigner.Sign(jwtlib.MapClaims{
			"iss":            fixture.server.URL,
			"aud":            testClientID,
			"sub":            "provider-subject-1",
			"email":          testViewerEmail,
			"email_verified": true,
			"iat":            time.Now().Unix(),
			"exp":            time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		fixture.serveToken(rogueToken)
		client := idp.New(fixture.clientConfig())

		_, err = client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	})

	t.Run("rejects an ID token for a different audience", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.serveToken(fixture.mintIDToken(t, jwtlib.MapClaims{"aud": "some-other-client"}))
		client := idp.New(fixture.clientConfig())

		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	})

	t.Run("rejects an expired ID token", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.serveToken(fixture.mintIDToken(t, jwtlib.MapClaims{
			"iat": time.Now().Add(-2 * time.Hour).Unix(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		}))
		client := idp.New(fixture.clientConfig())

		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	})

	t.Run("rejects an ID token without an email claim", func(t *testing.T) {
		fixture := newProviderFixture(t)
		fixture.serveToken(fixture.mintIDToken(t, jwtlib.MapClaims{"email": ""}))
		client := idp.New(fixture.clientConfig())

		_, err := client.Exchange(context.Background(), "auth-code")
		require.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	})
}
