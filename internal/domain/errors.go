package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound = errors.New("not found")

	ErrInvalidFormat         = errors.New("invalid format")
	ErrUnsupportedMethod     = errors.New("unsupported method")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountAlreadyExists  = errors.New("account already exists")
	ErrInvalidRegisterData   = errors.New("invalid register data")
	ErrDuplicateAccount      = errors.New("duplicate account")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrOtpExpired            = errors.New("otp expired")
	ErrOtpMismatch           = errors.New("otp mismatch")
)
