package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/heartmarshall/fqclock-backend/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// Auth puts the user ID of a valid bearer token into the request context.
// Requests without a token pass through anonymously unless required is set,
// in which case they get 401. An invalid token always gets 401.
func Auth(validator tokenValidator, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if required {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, r) // Anonymous
				return
			}
			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := ctxutil.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PathUser rejects with 403 an authenticated request whose user differs from
// the {param} path value. Anonymous requests pass through. It must wrap a
// handler registered on a ServeMux pattern that declares param.
func PathUser(param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := ctxutil.UserIDFromCtx(r.Context()); ok && userID != r.PathValue(param) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
