package http

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request scoped logger set by RequestLogger and
// RequireSession. Without one it rebuilds the request id and principal
// attributes from ctx so handler logs stay correlated.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			pairs = append(pairs, "request_id", reqID)
		}
		if principal, ok := PrincipalFromContext(ctx); ok {
			pairs = append(pairs, "principal_id", principal.UserID, "role", string(principal.Role))
		}
	}

	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}
