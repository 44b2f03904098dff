package errors

import (
	"errors"
	"fmt"
)

// Common error types for the edge authentication gateway
var (
	// Token errors
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenUseMismatch      = errors.New("token use mismatch")

	// Identity provider errors
	ErrNetworkFailure   = errors.New("identity provider unreachable")
	ErrProviderRejected = errors.New("identity provider rejected request")
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrMissingAssertion = errors.New("identity assertion missing from token response")
	ErrCallbackRejected = errors.New("authorization callback rejected")

	// Authorization errors
	ErrPolicyDenied          = errors.New("authorization policy denied access")
	ErrLookupInvalidResponse = errors.New("allow-list lookup returned invalid response")

	// Key errors
	ErrInvalidKey        = errors.New("invalid key material")
	ErrUnsupportedMethod = errors.New("unsupported signing method")

	// General errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInternal      = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
