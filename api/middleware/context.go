package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxAuth contextKey = "auth_context"

// AuthContext is the identity the auth middleware resolved for the request.
// It is computed once at the boundary so handlers never re-parse the token.
type AuthContext struct {
	UserID    uuid.UUID
	Email     string
	IsAdmin   bool
	SessionID string
}

// AuthFromContext returns the resolved identity, or false when the request
// was not authenticated.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return AuthContext{}, false
	}
	auth, ok := ctx.Value(ctxAuth).(AuthContext)
	return auth, ok
}

// WithAuthContext injects the resolved identity into the context.
func WithAuthContext(ctx context.Context, auth AuthContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuth, auth)
}
