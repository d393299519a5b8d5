package domain

import (
	"fmt"
	"time"
)

// Method is the shape of a login identifier. The set is closed; values only
// come from the constants below or ParseMethod.
type Method string

const (
	MethodEmail    Method = "email"
	MethodPhone    Method = "phone"
	MethodUsername Method = "username"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodEmail, MethodPhone, MethodUsername:
		return m, nil
	}
	return "", fmt.Errorf("method %q: %w", s, ErrUnsupportedMethod)
}

// IsContact reports whether the method carries a deliverable address.
func (m Method) IsContact() bool { return m == MethodEmail || m == MethodPhone }

// AuthType is the requested action.
type AuthType string

const (
	AuthTypeLogin    AuthType = "login"
	AuthTypeRegister AuthType = "register"
)

func ParseAuthType(s string) (AuthType, error) {
	switch t := AuthType(s); t {
	case AuthTypeLogin, AuthTypeRegister:
		return t, nil
	}
	return "", fmt.Errorf("auth type %q: %w", s, ErrUnauthorized)
}

// AuthRequest is the body of POST /auth/user-existence. Method and Type stay
// raw strings here so unknown values map to their own errors instead of a
// generic validation failure.
type AuthRequest struct {
	Method   string `json:"method" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type CheckOtpRequest struct {
	Code string `json:"code" validate:"required,numeric,len=5"`
}

// AuthResult is returned by a successful BeginAuth. Code is exposed to the
// caller only when OTP_EXPOSE_CODE is on.
type AuthResult struct {
	Code      string
	Token     string
	ExpiresAt time.Time
	Account   *Account
}
