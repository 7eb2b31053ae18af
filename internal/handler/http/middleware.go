package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
	"github.com/HarryOhm33/We-Hack/pkg/httputil"
	"github.com/HarryOhm33/We-Hack/pkg/logger"
)

// sessionCookieName is the cookie carrying the login token.
const sessionCookieName = "token"

type contextKey string

const userContextKey contextKey = "current_user"

// authenticator resolves a raw token to its user. Satisfied by the auth
// service.
type authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// UserFromContext returns the authenticated user set by the Authenticated
// middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// tokenFromRequest extracts the login token from the session cookie or the
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Authenticated requires a valid token backed by a live session and places
// the resolved user on the request context.
func Authenticated(auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = logger.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route to users holding the given role. It must be
// mounted inside Authenticated.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if user.Role != role {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
