package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"fintrack/internal/shared/auth"
)

type contextKey string

// UserIDKey holds the authenticated user ID in the request context.
const UserIDKey contextKey = "userID"

// AccessTokenCookie is the cookie the login endpoint sets.
const AccessTokenCookie = "access_token"

// Auth rejects requests without a valid access token. The token is read from
// the access_token cookie first, then from an Authorization: Bearer header.
func Auth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil || userID == "" {
				log.Printf("Auth rejected %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			recordUser(r.Context(), userID)
			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
