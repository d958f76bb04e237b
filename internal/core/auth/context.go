// Package auth provides the per-request authentication context.
package auth

import "context"

type contextKey string

const authContextKey contextKey = "auth"

// Context is the authentication state of a request, resolved from the
// Authorization token by the API middleware.
type Context struct {
	// UserID is the authenticated user's ID, 0 when anonymous.
	UserID int64

	// Authenticated indicates whether a valid token was presented.
	Authenticated bool
}

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext extracts the auth context; returns an anonymous context
// when none was stored.
func FromContext(ctx context.Context) Context {
	if ac, ok := ctx.Value(authContextKey).(Context); ok {
		return ac
	}
	return Context{}
}
