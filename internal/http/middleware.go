package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/meetsync/internal/persistence"
)

// userResolver resolves the host account a request acts on behalf of.
type userResolver interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
	DefaultUser(ctx context.Context) (persistence.User, error)
}

// RequestLogger attaches a request-scoped logger to the context and records
// request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

// ResolveUser injects the acting host account into the context. The X-User-ID
// header selects an account; without it the bootstrap default account is
// used. Account identity, not authentication: there are no credentials in
// this system.
func ResolveUser(users userResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				user persistence.User
				err  error
			)
			if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
				user, err = users.GetUser(r.Context(), id)
			} else {
				user, err = users.DefaultUser(r.Context())
			}
			if err != nil {
				responder.handleServiceError(r.Context(), w, err)
				return
			}

			ctx := ContextWithCurrentUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
