package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/token/keys"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Token use values discriminate the two first-party token kinds signed with
// the same key, so a state token can never stand in for a session.
const (
	SessionUse = "session"
	StateUse   = "state"
)

// StateTTL bounds how long a login round-trip through the provider may take.
const StateTTL = 10 * time.Minute

// VerificationLeeway absorbs clock skew between the signing and verifying
// edge nodes.
const VerificationLeeway = 30 * time.Second

// Codec mints and verifies the gateway's first-party tokens: session tokens
// carried in the viewer's cookie and state tokens carried through the OAuth
// round-trip. Both are RS256 JWTs signed with the same key pair.
type Codec struct {
	signer          keys.Signer
	issuer          string
	sessionDuration time.Duration
}

// NewCodec creates a codec signing with the given signer. sessionDuration is
// the lifetime of minted session tokens.
func NewCodec(signer keys.Signer, issuer string, sessionDuration time.Duration) *Codec {
	return &Codec{
		signer:          signer,
		issuer:          issuer,
		sessionDuration: sessionDuration,
	}
}

// MintSession creates a signed session token for an authorized viewer.
func (c *Codec) MintSession(email string) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":       c.issuer,
		"sub":       email,
		"iat":       now.Unix(),
		"exp":       now.Add(c.sessionDuration).Unix(),
		"jti":       uuid.New().String(),
		"token_use": SessionUse,
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", apperrors.Wrapf(err, "failed to sign session token")
	}
	return signedToken, nil
}

// MintState creates a signed state token carrying the URL the viewer asked
// for, so the callback can send them back there after the provider
// round-trip.
func (c *Codec) MintState(returnURL string) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":       c.issuer,
		"return":    returnURL,
		"iat":       now.Unix(),
		"exp":       now.Add(StateTTL).Unix(),
		"jti":       uuid.New().String(),
		"token_use": StateUse,
	}

	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", apperrors.Wrapf(err, "failed to sign state token")
	}
	return signedToken, nil
}
