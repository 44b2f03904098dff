package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/idp"
	"github.com/jrsteele09/go-edge-auth/internal/metrics"
	"github.com/jrsteele09/go-edge-auth/policy"
	"github.com/jrsteele09/go-edge-auth/token/jwt"
)

// Decision outcomes, used as metric labels and log fields.
const (
	OutcomePass            = "pass"
	OutcomeRedirectLogin   = "redirect_login"
	OutcomeRedirectSession = "redirect_session"
	OutcomeDeny            = "deny"
)

// Exchanger is the provider-facing surface the gateway needs: building the
// login redirect and redeeming callback codes.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*idp.Assertion, error)
}

// Action is the single decision the gateway takes for a request. Exactly one
// is produced per evaluation.
type Action interface {
	// Outcome labels the action for logs and metrics.
	Outcome() string

	apply(w http.ResponseWriter, r *http.Request, g *Gateway)
}

// PassThrough forwards the request to the origin. The gateway's session
// cookie is stripped so the origin never sees viewer credentials.
type PassThrough struct {
	Email string
}

func (PassThrough) Outcome() string { return OutcomePass }

func (a PassThrough) apply(w http.ResponseWriter, r *http.Request, g *Gateway) {
	stripCookie(r, g.cookieName)
	g.origin.ServeHTTP(w, r)
}

// Redirect sends the viewer elsewhere: to the provider to log in, or back to
// their original URL with a fresh session cookie.
type Redirect struct {
	Kind     string
	Location string
	Cookie   *http.Cookie

	// ClearCookie also expires the session cookie, so browsers stop
	// resending one that failed verification.
	ClearCookie bool
}

func (a Redirect) Outcome() string { return a.Kind }

func (a Redirect) apply(w http.ResponseWriter, r *http.Request, g *Gateway) {
	if a.Cookie != nil {
		http.SetCookie(w, a.Cookie)
	}
	if a.ClearCookie {
		http.SetCookie(w, clearedCookie(g.cookieName, r))
	}
	// Auth decisions must never be cached by an edge.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, a.Location, http.StatusFound)
}

// Deny refuses the request. Reason is logged server-side only; the viewer
// gets a generic body.
type Deny struct {
	Status int
	Reason error
}

func (Deny) Outcome() string { return OutcomeDeny }

func (a Deny) apply(w http.ResponseWriter, _ *http.Request, _ *Gateway) {
	status := a.Status
	if status == 0 {
		status = http.StatusForbidden
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, "Access denied", status)
}

// Config assembles a Gateway. Codec, Exchanger, Authorizer and Origin are
// required; the rest default sensibly.
type Config struct {
	Codec      *jwt.Codec
	Exchanger  Exchanger
	Authorizer policy.Policy
	Origin     http.Handler
	Metrics    *metrics.Metrics

	// CallbackPath is the one reserved path on the listener: the OAuth
	// redirect URI's path component.
	CallbackPath string

	CookieName      string
	SessionDuration time.Duration
	Timeout         time.Duration
}

// Gateway is the per-request security state machine. It owns every path on
// its listener: each request either passes to the origin, redirects, or is
// denied. It keeps no per-viewer state between requests.
type Gateway struct {
	codec      *jwt.Codec
	exchanger  Exchanger
	authorizer policy.Policy
	origin     http.Handler
	metrics    *metrics.Metrics

	callbackPath    string
	cookieName      string
	sessionDuration time.Duration
	timeout         time.Duration
}

// New builds the gateway, rejecting incomplete wiring outright.
func New(cfg Config) (*Gateway, error) {
	if cfg.Codec == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "gateway needs a token codec")
	}
	if cfg.Exchanger == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "gateway needs a provider client")
	}
	if cfg.Authorizer == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "gateway needs an authorization policy")
	}
	if cfg.Origin == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "gateway needs an origin handler")
	}
	if cfg.CallbackPath == "" || cfg.CallbackPath[0] != '/' {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "callback path %q must be absolute", cfg.CallbackPath)
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "edge_auth_session"
	}
	sessionDuration := cfg.SessionDuration
	if sessionDuration <= 0 {
		sessionDuration = time.Hour
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Gateway{
		codec:           cfg.Codec,
		exchanger:       cfg.Exchanger,
		authorizer:      cfg.Authorizer,
		origin:          cfg.Origin,
		metrics:         cfg.Metrics,
		callbackPath:    cfg.CallbackPath,
		cookieName:      cookieName,
		sessionDuration: sessionDuration,
		timeout:         timeout,
	}, nil
}

// ServeHTTP evaluates the request and applies the resulting action.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := g.Evaluate(r)
	g.metrics.IncrementDecision(action.Outcome())

	switch a := action.(type) {
	case PassThrough:
		log.Debug().Str("path", r.URL.Path).Str("email", a.Email).Msg("forwarding to origin")
	case Redirect:
		log.Debug().Str("path", r.URL.Path).Str("outcome", a.Kind).Msg("redirecting viewer")
	case Deny:
		log.Warn().Err(a.Reason).Str("path", r.URL.Path).Msg("denied request")
	}

	action.apply(w, r, g)
}

// Evaluate runs the state machine for one request. It is a pure function of
// the request and the gateway's configuration; the response is not touched.
func (g *Gateway) Evaluate(r *http.Request) Action {
	staleCookie := false
	if raw, ok := g.sessionFromRequest(r); ok {
		claims, err := g.codec.VerifySession(raw)
		if err == nil {
			return PassThrough{Email: claims.Email}
		}
		g.metrics.IncrementTokenFailure("session", failureReason(err))
		staleCookie = true
	}

	if r.URL.Path == g.callbackPath {
		return g.evaluateCallback(r)
	}

	return g.loginRedirect(r, staleCookie)
}

// evaluateCallback handles the provider's redirect back: verify state,
// exchange the code, authorize, mint a session. Every failure denies.
func (g *Gateway) evaluateCallback(r *http.Request) Action {
	if errParam := r.FormValue("error"); errParam != "" {
		return Deny{Reason: apperrors.Wrapf(apperrors.ErrCallbackRejected, "provider returned %q", errParam)}
	}

	code := r.FormValue("code")
	state := r.FormValue("state")
	if code == "" || state == "" {
		return Deny{Reason: apperrors.Wrapf(apperrors.ErrCallbackRejected, "callback missing code or state")}
	}

	stateClaims, err := g.codec.VerifyState(state)
	if err != nil {
		g.metrics.IncrementTokenFailure("state", failureReason(err))
		return Deny{Reason: apperrors.Wrapf(err, "state verification failed")}
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	started := time.Now()
	assertion, err := g.exchanger.Exchange(ctx, code)
	g.metrics.ObserveExchangeLatency(time.Since(started))
	if err != nil {
		return Deny{Reason: err}
	}

	allowed, err := g.authorizer.Authorize(ctx, assertion)
	if err != nil {
		return Deny{Reason: apperrors.Wrapf(err, "authorization failed for %s", assertion.Email)}
	}
	if !allowed {
		return Deny{Reason: apperrors.Wrapf(apperrors.ErrPolicyDenied, "%s refused %s", g.authorizer.Name(), assertion.Email)}
	}

	sessionToken, err := g.codec.MintSession(assertion.Email)
	if err != nil {
		return Deny{Status: http.StatusInternalServerError, Reason: err}
	}

	return Redirect{
		Kind:     OutcomeRedirectSession,
		Location: sanitizeReturnURL(stateClaims.ReturnURL),
		Cookie:   sessionCookie(g.cookieName, sessionToken, g.sessionDuration, r),
	}
}

// loginRedirect starts the round-trip: the original URL travels to the
// provider and back inside a signed state token.
func (g *Gateway) loginRedirect(r *http.Request, clearStale bool) Action {
	stateToken, err := g.codec.MintState(originalURL(r))
	if err != nil {
		return Deny{Status: http.StatusInternalServerError, Reason: err}
	}

	return Redirect{
		Kind:        OutcomeRedirectLogin,
		Location:    g.exchanger.AuthCodeURL(stateToken),
		ClearCookie: clearStale,
	}
}

// sessionFromRequest extracts the session cookie value. A missing or empty
// cookie reads as "no session".
func (g *Gateway) sessionFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// failureReason buckets a verification error for the failure counter.
func failureReason(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		return "expired"
	case apperrors.Is(err, apperrors.ErrTokenSignatureInvalid):
		return "signature"
	case apperrors.Is(err, apperrors.ErrTokenUseMismatch):
		return "use_mismatch"
	default:
		return "malformed"
	}
}
