// Package common defines shared constants and sentinel errors used across
// tokensmith components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login errors. Unknown email and wrong password collapse into this
	// single value so callers cannot tell the cases apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Refresh errors.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")

	// Signer-level errors.
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")

	// Password-reset errors.
	ErrUserNotFound      = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("reset token invalid")
	ErrResetTokenExpired = errors.New("reset token expired")
)
