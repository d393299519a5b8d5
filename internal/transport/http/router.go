package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(slog.Default()))
	r.Use(chimiddleware.Recoverer)
	// Without configured origins no CORS headers are sent and only
	// same-origin callers can use the otp cookie.
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	authRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.TrustProxyHeaders)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Auth, handler.CookieOptions{
		Secure:     cfg.CookieSecure,
		MaxAge:     cfg.OTPTokenTTL,
		ExposeCode: cfg.OTPExposeCode,
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Use(authRL.Limit)
			r.Post("/user-existence", authH.UserExistence)
			r.With(appmiddleware.OtpCookie(deps.Tokens)).Post("/check-otp", authH.CheckOtp)
		})
	})

	return r
}
