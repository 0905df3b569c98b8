package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/numerology-appointments/pkg/auth"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

type identityKey struct{}

// OptionalIdentity attaches a valid bearer identity to the request context.
// Requests without one, or with an invalid one, pass through untouched.
func OptionalIdentity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if !strings.HasPrefix(token, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(token, "Bearer "), secret)
			if err != nil {
				logger.DebugContext(r.Context(), "Ignoring invalid bearer identity", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			id := claims.Identity
			ctx := context.WithValue(r.Context(), identityKey{}, &id)
			ctx = context.WithValue(ctx, logger.UserEmailKey, id.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the identity set by OptionalIdentity, or nil.
func IdentityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}
