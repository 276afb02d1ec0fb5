package http

import (
	"context"
	"log/slog"

	"github.com/example/meetsync/internal/logging"
	"github.com/example/meetsync/internal/persistence"
)

type contextKey string

const (
	currentUserContextKey contextKey = "current_user"
	resourceIDContextKey  contextKey = "resource_id"
)

// ContextWithCurrentUser returns a derived context carrying the host account
// the request acts on behalf of.
func ContextWithCurrentUser(ctx context.Context, user persistence.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}

// CurrentUserFromContext extracts the acting host account from context.
func CurrentUserFromContext(ctx context.Context) (persistence.User, bool) {
	user, ok := ctx.Value(currentUserContextKey).(persistence.User)
	return user, ok
}

// ContextWithResourceID injects the identifier resolved from the request path.
func ContextWithResourceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, id)
}

// ResourceIDFromContext extracts a path identifier previously associated with the context.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request-scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
