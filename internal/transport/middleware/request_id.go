package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/heartmarshall/fqclock-backend/pkg/ctxutil"
)

const maxRequestIDLength = 128

// RequestID propagates X-Request-Id, generating one when the client sent none
// or sent one that is too long to log.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}
		ctx := ctxutil.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
