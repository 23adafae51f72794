package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	// InvalidCredentials is deliberately shared between "no such user" and
	// "wrong password" so responses never leak account existence.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// MFA flow errors
	ErrInvalidCode   = errors.New("invalid verification code")
	ErrMFANotEnabled = errors.New("mfa not enabled for this account")
	ErrMFANotPending = errors.New("no mfa setup in progress")
)
