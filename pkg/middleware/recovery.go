package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/HarryOhm33/We-Hack/pkg/httputil"
	"github.com/HarryOhm33/We-Hack/pkg/logger"
)

// Recovery converts a handler panic into a 500 response using the same error
// envelope as the rest of the API. The stack is logged with the request id so
// it can be tied back to the failing request.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http uses this sentinel to abort a response.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", logger.RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)

				httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "INTERNAL_ERROR",
						Message: "an internal error occurred",
					},
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
