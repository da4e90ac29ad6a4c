package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/taskboard/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// EmailKey is the context key for storing the authenticated user's email.
const EmailKey contextKey = "email"

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithEmail returns a copy of ctx carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}

// OptionalAuth returns a middleware that validates a bearer token if present,
// but allows requests without one. The dashboard identifies itself by email
// alone, so a missing token is normal; an invalid one is logged and ignored.
func OptionalAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Parse Bearer token
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					claims, err := jwtManager.Validate(parts[1])
					if err == nil {
						r = r.WithContext(WithEmail(r.Context(), claims.Email))
					} else {
						slog.Debug("Ignoring invalid bearer token", "path", r.URL.Path, "error", err)
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
