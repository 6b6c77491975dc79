package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/example/roombook/internal/application"
)

// SessionValidator resolves a bearer token into the identity behind it.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.SessionIdentity, error)
}

// RequireSession rejects requests without a valid session and attaches the
// resolved identity to the request context.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			identity, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "session rejected", "error", err, "error_kind", application.ErrorKind(err))
				status, resp := classifyError(err)
				if status == http.StatusInternalServerError {
					resp = errorResponse{Error: "セッション検証中にエラーが発生しました。"}
				}
				responder.writeJSON(r.Context(), w, status, resp)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", identity.Principal.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger keyed by the chi request id
// and logs the response status and duration.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{"status", status, "bytes", ww.BytesWritten(), "duration", time.Since(start)}
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(ctx, "request completed", attrs...)
				return
			}
			logger.InfoContext(ctx, "request completed", attrs...)
		})
	}
}

// CORS allows browser clients from origins. A lone "*" allows any origin
// without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Session-Token", "X-Request-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
