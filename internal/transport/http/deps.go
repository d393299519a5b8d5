package http

import (
	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// Deps holds the application services the router wires into handlers.
type Deps struct {
	Auth auth.Service
	// Tokens verifies the otp cookie before check-otp reaches the handler.
	Tokens middleware.TokenVerifier
}
