package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
)

type contextKey string

const (
	// UserContextKey is the key for storing session claims in context
	UserContextKey contextKey = "user"
)

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (*models.TokenClaims, error)
}

// AuthMiddleware validates the session token from the Authorization header
// and injects its claims into the request context. Both "Bearer <token>" and
// a bare token are accepted.
func AuthMiddleware(tv TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r.Header.Get("Authorization"))
			if tokenString == "" {
				pkghttp.WriteUnauthorized(w, "A token is required for authentication")
				return
			}

			claims, err := tv.Validate(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}

// GetUserFromContext extracts session claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
