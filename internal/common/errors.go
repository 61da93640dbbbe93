// Package common defines shared constants and sentinel errors used across
// the identity service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorDuplicateEmail = errors.New("duplicate email")
	ErrorDuplicateCode  = errors.New("duplicate verification code")

	// Service-level errors returned by the auth flows.
	ErrorValidation            = errors.New("validation error")
	ErrorDuplicateAccount      = errors.New("account already exists")
	ErrorInvalidCredentials    = errors.New("invalid credentials")
	ErrorInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrorInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrorUnauthenticated       = errors.New("not authenticated")
	ErrorInternal              = errors.New("internal error")

	// Session token errors (malformed, bad signature or expired).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
