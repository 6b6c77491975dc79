package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/roombook/internal/application"
)

// HealthChecker is a dependency that can report its reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthFunc adapts a ping function to HealthChecker.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Health(ctx context.Context) error { return f(ctx) }

// DiagnosticsConfig wires the diagnostic endpoints. Nil fields are reported as not configured.
type DiagnosticsConfig struct {
	Presence    map[string]bool
	Sessions    SessionValidator
	Database    HealthChecker
	ObjectStore HealthChecker
	Cache       HealthChecker
	Timeout     time.Duration
}

// DiagnosticsHandler serves unauthenticated configuration and connectivity probes.
type DiagnosticsHandler struct {
	cfg       DiagnosticsConfig
	responder responder
	logger    *slog.Logger
}

func NewDiagnosticsHandler(cfg DiagnosticsConfig, logger *slog.Logger) *DiagnosticsHandler {
	base := defaultLogger(logger)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &DiagnosticsHandler{cfg: cfg, responder: newResponder(base), logger: base}
}

func (h *DiagnosticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "DiagnosticsHandler", operation, attrs...)
}

// EnvCheck reports which settings are present. Values are never echoed.
func (h *DiagnosticsHandler) EnvCheck(w http.ResponseWriter, r *http.Request) {
	presence := h.cfg.Presence
	if presence == nil {
		presence = map[string]bool{}
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, presence, "")
}

// AuthDebug reports whether the request carries a valid session.
func (h *DiagnosticsHandler) AuthDebug(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	out := authDebugDTO{TokenPresent: token != ""}
	if token != "" && h.cfg.Sessions != nil {
		identity, err := h.cfg.Sessions.ValidateSession(r.Context(), token)
		if err != nil {
			out.ErrorKind = application.ErrorKind(err)
		} else {
			out.Valid = true
			out.UserID = identity.Principal.UserID
			out.Role = string(identity.Principal.Role)
			out.ExpiresAt = formatTime(identity.ExpiresAt)
		}
	}
	h.log(r.Context(), "AuthDebug", "token_present", out.TokenPresent, "valid", out.Valid).InfoContext(r.Context(), "auth debug requested")
	h.responder.writeData(r.Context(), w, http.StatusOK, out, "")
}

// Health probes the database, object store and cache. Any failure yields 503.
func (h *DiagnosticsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	checks := map[string]string{
		"database":     h.probe(ctx, "database", h.cfg.Database),
		"object_store": h.probe(ctx, "object_store", h.cfg.ObjectStore),
		"cache":        h.probe(ctx, "cache", h.cfg.Cache),
	}

	status := http.StatusOK
	for _, state := range checks {
		if state == "error" {
			status = http.StatusServiceUnavailable
		}
	}
	h.responder.writeData(r.Context(), w, status, checks, "")
}

func (h *DiagnosticsHandler) probe(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return "not_configured"
	}
	if err := checker.Health(ctx); err != nil {
		h.log(ctx, "Health", "dependency", name).WarnContext(ctx, "dependency unhealthy", "error", err)
		return "error"
	}
	return "ok"
}

type authDebugDTO struct {
	TokenPresent bool   `json:"token_present"`
	Valid        bool   `json:"valid"`
	UserID       string `json:"user_id,omitempty"`
	Role         string `json:"role,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}
