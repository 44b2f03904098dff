package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/token/keys"
)

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// StateClaims are the verified contents of a state token.
type StateClaims struct {
	ReturnURL string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// VerifySession validates a raw session token and extracts its claims.
func (c *Codec) VerifySession(rawToken string) (*SessionClaims, error) {
	claims, err := c.verify(rawToken, SessionUse)
	if err != nil {
		return nil, err
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, apperrors.Wrapf(apperrors.ErrTokenMalformed, "session token missing subject")
	}

	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	jti, _ := claims["jti"].(string)

	return &SessionClaims{
		Email:     email,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
		ID:        jti,
	}, nil
}

// VerifyState validates a raw state token and extracts its claims.
func (c *Codec) VerifyState(rawToken string) (*StateClaims, error) {
	claims, err := c.verify(rawToken, StateUse)
	if err != nil {
		return nil, err
	}

	returnURL, _ := claims["return"].(string)
	if returnURL == "" {
		return nil, apperrors.Wrapf(apperrors.ErrTokenMalformed, "state token missing return URL")
	}

	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	jti, _ := claims["jti"].(string)

	return &StateClaims{
		ReturnURL: returnURL,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
		ID:        jti,
	}, nil
}

// verify parses and validates a raw token, checking signature, expiry (with
// leeway) and the token_use discriminator.
func (c *Codec) verify(rawToken, expectedUse string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrTokenMalformed
	}

	token, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, c.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{keys.RS256}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(VerificationLeeway),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid {
		return nil, apperrors.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrTokenMalformed, "error extracting claims from token")
	}

	if use, _ := claims["token_use"].(string); use != expectedUse {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUseMismatch, "expected %s token", expectedUse)
	}

	return claims, nil
}

// mapJWTError translates jwt library failures into the gateway's taxonomy.
// The router treats them all as "no valid token" but logs and counts them
// separately.
func mapJWTError(err error) error {
	switch {
	case apperrors.Is(err, jwtlib.ErrTokenMalformed):
		return apperrors.ErrTokenMalformed
	case apperrors.Is(err, jwtlib.ErrTokenExpired):
		return apperrors.ErrTokenExpired
	case apperrors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return apperrors.ErrTokenSignatureInvalid
	case apperrors.Is(err, jwtlib.ErrTokenUnverifiable):
		return apperrors.ErrTokenSignatureInvalid
	default:
		return apperrors.ErrTokenMalformed
	}
}
