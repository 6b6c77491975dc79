package http

import (
	"context"
	"log/slog"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	identityContextKey  contextKey = "identity"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithIdentity stores the resolved session identity and its principal.
func ContextWithIdentity(ctx context.Context, identity application.SessionIdentity) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, identity)
	return ContextWithPrincipal(ctx, identity.Principal)
}

// IdentityFromContext extracts the session identity attached by RequireSession.
func IdentityFromContext(ctx context.Context) (application.SessionIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(application.SessionIdentity)
	return identity, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
