package middleware

import (
	"context"
	"net/http"
)

// OtpCookieName is the cookie carrying the correlation token between
// user-existence and check-otp.
const OtpCookieName = "otp"

type contextKey string

const otpSessionKey contextKey = "otp_session"

// TokenVerifier resolves a correlation token to its account id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// OtpSession is what OtpCookie leaves in the request context.
type OtpSession struct {
	Token     string
	AccountID string
}

// OtpCookie rejects requests without a valid otp cookie and injects the
// session into context.
func OtpCookie(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(OtpCookieName)
			if err != nil || c.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "otp cookie is missing, request a new code")
				return
			}
			accountID, err := verifier.Verify(c.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), otpSessionKey, OtpSession{Token: c.Value, AccountID: accountID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OtpSessionFromContext returns the session injected by OtpCookie.
func OtpSessionFromContext(ctx context.Context) (OtpSession, bool) {
	s, ok := ctx.Value(otpSessionKey).(OtpSession)
	return s, ok
}

// WithOtpSession stores s in ctx the way OtpCookie does.
func WithOtpSession(ctx context.Context, s OtpSession) context.Context {
	return context.WithValue(ctx, otpSessionKey, s)
}
