package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the shared secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized represents missing or invalid session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
