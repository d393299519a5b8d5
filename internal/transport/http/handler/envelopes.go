package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-otp-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OtpSentEnvelope answers POST /auth/user-existence. Code is set only when
// the server is configured to expose it.
type OtpSentEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// VerifiedEnvelope answers a successful POST /auth/check-otp.
type VerifiedEnvelope struct {
	Message string          `json:"message"`
	Account *domain.Account `json:"account"`
}

const (
	msgOtpSent          = "OTP code sent successfully"
	msgOtpVerified      = "OTP code verified successfully"
	msgInternal         = "internal server error"
	msgInvalidBody      = "invalid request body"
	msgNotFoundAccount  = "Not found account, please register before logging in"
	msgAlreadyExists    = "Account already exists, enter different login data or login"
	msgInvalidRegister  = "Invalid Register data, check your information and try again"
	msgInvalidLoginData = "Invalid login data, check your information and try again"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error to a status and a client-safe message.
// Unrecognized errors are logged and reported as 500 without detail.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, msgInvalidLoginData)
	case errors.Is(err, domain.ErrUnsupportedMethod):
		writeError(w, http.StatusBadRequest, "unsupported method")
	case errors.Is(err, domain.ErrInvalidRegisterData):
		writeError(w, http.StatusBadRequest, msgInvalidRegister)
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusUnauthorized, msgNotFoundAccount)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, domain.ErrOtpExpired):
		writeError(w, http.StatusUnauthorized, "OTP code expired, request a new one")
	case errors.Is(err, domain.ErrOtpMismatch):
		writeError(w, http.StatusUnauthorized, "OTP code is incorrect")
	case errors.Is(err, domain.ErrAccountAlreadyExists), errors.Is(err, domain.ErrDuplicateAccount):
		writeError(w, http.StatusConflict, msgAlreadyExists)
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
