package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/go-otp-auth/internal/transport/http/middleware"
	"github.com/go-viper/mapstructure/v2"
)

// CookieOptions controls the otp correlation cookie and whether the issued
// code is echoed back in the response body.
type CookieOptions struct {
	Secure     bool
	MaxAge     time.Duration
	ExposeCode bool
}

// AuthHandler serves the passcode login/registration endpoints.
type AuthHandler struct {
	svc  auth.Service
	opts CookieOptions
}

func NewAuthHandler(svc auth.Service, opts CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, opts: opts}
}

// UserExistence starts a login or registration and sets the otp cookie.
func (h *AuthHandler) UserExistence(w http.ResponseWriter, r *http.Request) {
	var req domain.AuthRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.svc.BeginAuth(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.OtpCookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	body := OtpSentEnvelope{Message: msgOtpSent}
	if h.opts.ExposeCode {
		body.Code = res.Code
	}
	writeJSON(w, http.StatusOK, body)
}

// CheckOtp redeems the code for the account bound to the otp cookie.
// Must run behind middleware.OtpCookie.
func (h *AuthHandler) CheckOtp(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.OtpSessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing otp session")
		return
	}
	var req domain.CheckOtpRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	acc, err := h.svc.CheckOtp(r.Context(), sess.Token, req.Code)
	if err != nil {
		httpError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.OtpCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	slog.InfoContext(r.Context(), "account verified", "account_id", sess.AccountID)
	writeJSON(w, http.StatusOK, VerifiedEnvelope{Message: msgOtpVerified, Account: acc})
}

// decodeBody fills dst from a JSON or url-encoded form body. Form fields are
// matched against the json tags of dst.
func decodeBody(r *http.Request, dst interface{}) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	fields := make(map[string]interface{}, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}
