package service

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrIncorrectCredentials = errors.New("incorrect email or password")
	ErrInactiveAccount      = errors.New("inactive user")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrIdentityConflict     = errors.New("external identity conflict")
	ErrInvalidResetToken    = errors.New("invalid reset token")
	ErrResetTokenExpired    = errors.New("reset token expired")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrNoLocalPassword      = errors.New("account has no local password")
	ErrSamePassword         = errors.New("new password equals current password")
	ErrSignupDisabled       = errors.New("signup disabled")
	ErrUpstream             = errors.New("upstream failure")
	ErrMisconfigured        = errors.New("auth config invalid")
)
