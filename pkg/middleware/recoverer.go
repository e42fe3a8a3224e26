package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/JaimeStill/route-tour/pkg/httperrors"
)

// Recoverer recovers from panics in handlers outside the pipeline, logs them
// and replies with a 500 error payload.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						"panic", rvr,
						"url", r.URL.String(),
						"stack", string(debug.Stack()),
					)
					httperrors.New(http.StatusInternalServerError, "").WriteJSON(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
