package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombook/internal/application"
)

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error)
	RevokeSession(ctx context.Context, token string) error
}

type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login exchanges an email and password for a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "Login", "email", email)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:       email,
		Password:    req.Password,
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.AccessToken, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.AccessToken)

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")

	principal := application.Principal{UserID: result.User.ID, Role: result.User.Role}
	h.responder.writeData(r.Context(), w, http.StatusOK, sessionDTO{
		Token:        result.AccessToken,
		ExpiresAt:    formatTime(result.Session.ExpiresAt),
		User:         toUserDTO(result.User),
		Capabilities: capabilityNames(principal),
	}, "ログインしました。")
}

// Logout revokes the session carried by the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.log(r.Context(), "Logout", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for logout")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "Logout", "token_present", true)

	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	logger.InfoContext(r.Context(), "session revoked")
	h.responder.writeData(r.Context(), w, http.StatusOK, nil, "ログアウトしました。")
}

// Refresh rotates the current session token and extends its expiry.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.log(r.Context(), "Refresh", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for refresh")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "Refresh")

	result, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{
		Token:       token,
		Fingerprint: r.UserAgent(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session refresh failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.AccessToken, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.AccessToken)

	logger.With("user_id", result.Session.UserID).InfoContext(r.Context(), "session refreshed")
	h.responder.writeData(r.Context(), w, http.StatusOK, refreshDTO{
		Token:     result.AccessToken,
		ExpiresAt: formatTime(result.Session.ExpiresAt),
	}, "")
}

// Me reports the authenticated user and their capabilities.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Me", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session identity")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, meDTO{
		User:         toUserDTO(identity.User),
		Capabilities: capabilityNames(identity.Principal),
		ExpiresAt:    formatTime(identity.ExpiresAt),
	}, "")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionDTO struct {
	Token        string   `json:"token"`
	ExpiresAt    string   `json:"expires_at"`
	User         userDTO  `json:"user"`
	Capabilities []string `json:"capabilities"`
}

type refreshDTO struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type meDTO struct {
	User         userDTO  `json:"user"`
	Capabilities []string `json:"capabilities"`
	ExpiresAt    string   `json:"expires_at"`
}

func capabilityNames(principal application.Principal) []string {
	caps := application.Capabilities(principal)
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie("session_token"); err == nil {
		return cookie.Value
	}
	return ""
}
