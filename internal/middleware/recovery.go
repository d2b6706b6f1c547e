package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"moment/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response instead of a
// dropped connection. Sync clients treat a closed socket as a network flake
// and retry with the same watermark, so a crash still has to answer.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"stack", string(debug.Stack()),
					)

					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
