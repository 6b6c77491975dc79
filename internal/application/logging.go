package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/roombook/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger tags records with the service and operation, on top of the
// request scoped logger when one is attached to ctx.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "service", serviceName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logger.With(append(pairs, attrs...)...)
}

// logFailure records a failed operation. Rejections caused by the caller are
// warnings; everything else is an error.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error) {
	kind := ErrorKind(err)
	logger.Log(ctx, failureLevel(kind), msg, "error", err, "error_kind", kind)
}

func failureLevel(kind string) slog.Level {
	switch kind {
	case "timeout", "unexpected":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, ErrCancellationWindowClosed):
		return "cancellation_window_closed"
	case errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrEmptyFile):
		return "upload_rejected"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
