package api

import (
	"context"

	"github.com/openleague/openleague-go/internal/store"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	userContextKey    contextKey = "user"
)

// WithSession stores the authenticated session in the context.
func WithSession(ctx context.Context, session *store.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SessionFromContext returns the session placed in the context by the
// auth middleware, or nil for unauthenticated requests.
func SessionFromContext(ctx context.Context) *store.Session {
	session, _ := ctx.Value(sessionContextKey).(*store.Session)
	return session
}

// UserFromContext returns the user placed in the context by the auth
// middleware, or nil for unauthenticated requests.
func UserFromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}
