// Package middleware provides HTTP middleware for the Foodgram API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/foodgram/foodgram/internal/core/auth"
	"github.com/foodgram/foodgram/internal/core/domain"
)

// =============================================================================
// Token Resolver Interface
// =============================================================================

// TokenResolver resolves an auth token key to its user.
// The store implements this interface.
type TokenResolver interface {
	GetUserByToken(ctx context.Context, key string) (*domain.User, error)
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware resolves the Authorization token header into an auth
// context. Requests without a token proceed as anonymous.
type AuthMiddleware struct {
	resolver TokenResolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(resolver TokenResolver, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

// Handler resolves "Authorization: Token <key>" and stores the result in
// the request context. Invalid or unknown tokens leave the request
// anonymous so that public endpoints keep working.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := TokenFromHeader(r.Header.Get("Authorization"))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.resolver.GetUserByToken(r.Context(), key)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithContext(r.Context(), auth.Context{
			UserID:        user.ID,
			Authenticated: true,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromHeader extracts the key from an "Authorization: Token <key>"
// header value.
func TokenFromHeader(header string) string {
	scheme, key, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") {
		return ""
	}
	return strings.TrimSpace(key)
}

// =============================================================================
// Require Auth
// =============================================================================

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := auth.FromContext(r.Context())
		if !ac.Authenticated {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "authentication required",
				"code":  "not_authenticated",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
