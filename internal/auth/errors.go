package auth

import "errors"

// Sentinel errors for authentication and authorization.
var (
	// Authentication errors
	ErrMissingToken     = errors.New("auth: missing token")
	ErrMalformedHeader  = errors.New("auth: malformed authorization header")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// Authorization errors
	ErrForbidden = errors.New("auth: access denied")

	// Codec errors
	ErrInvalidClaims = errors.New("auth: invalid claims")
	ErrDecode        = errors.New("auth: token could not be decoded")
)
