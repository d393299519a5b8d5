package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request with status and latency. Server
// errors log at error level, client errors at warn.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"request_id", chimiddleware.GetReqID(r.Context()),
				"status", status,
				"method", r.Method,
				"path", r.URL.Path,
				"latency", time.Since(start),
				"remote_ip", remoteHost(r),
			}
			switch {
			case status >= 500:
				logger.ErrorContext(r.Context(), "http_request", attrs...)
			case status >= 400:
				logger.WarnContext(r.Context(), "http_request", attrs...)
			default:
				logger.InfoContext(r.Context(), "http_request", attrs...)
			}
		})
	}
}
