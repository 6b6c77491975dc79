package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/roombook/internal/application"
)

type reportService interface {
	Generate(ctx context.Context, principal application.Principal, from, to time.Time) (application.Report, error)
}

type settingsService interface {
	GetSettings(ctx context.Context) (application.Settings, error)
	UpdateSettings(ctx context.Context, principal application.Principal, input application.Settings) (application.Settings, error)
}

type auditService interface {
	ListAudit(ctx context.Context, principal application.Principal, limit int) ([]application.AuditEntry, error)
}

// AdminHandler serves reports, organisation settings and the audit trail.
type AdminHandler struct {
	reports   reportService
	settings  settingsService
	audit     auditService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(reports reportService, settings settingsService, audit auditService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{reports: reports, settings: settings, audit: audit, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// Report aggregates bookings between ?from= and ?to=. A date-only ?to= includes that whole day.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reports == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Report", "principal_id", principal.UserID)

	query := r.URL.Query()
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}
	rawTo := strings.TrimSpace(query.Get("to"))
	to, err := parseOptionalTime(rawTo)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}
	if to != nil && len(rawTo) == len(time.DateOnly) {
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	var fromT, toT time.Time
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}

	report, err := h.reports.Generate(r.Context(), principal, fromT, toT)
	if err != nil {
		logger.ErrorContext(r.Context(), "report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toReportDTO(report), "")
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.settings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	settings, err := h.settings.GetSettings(r.Context())
	if err != nil {
		h.log(r.Context(), "GetSettings").ErrorContext(r.Context(), "settings lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toSettingsDTO(settings), "")
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.settings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateSettings", "principal_id", principal.UserID)

	var req settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode settings", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	settings, err := h.settings.UpdateSettings(r.Context(), principal, application.Settings{
		OrganizationName:         strings.TrimSpace(req.OrganizationName),
		Timezone:                 strings.TrimSpace(req.Timezone),
		DefaultCancellationHours: req.DefaultCancellationHours,
		NotificationEmail:        trimmedPtr(req.NotificationEmail),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "settings update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "settings updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toSettingsDTO(settings), "設定を保存しました。")
}

// Audit lists the newest audit entries, bounded by ?limit=.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.audit == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Audit", "principal_id", principal.UserID)

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
			return
		}
		limit = n
	}

	entries, err := h.audit.ListAudit(r.Context(), principal, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]auditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryDTO{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Details:    e.Details,
			CreatedAt:  formatTime(e.CreatedAt),
		})
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, out, "")
}

type settingsDTO struct {
	OrganizationName         string  `json:"organization_name"`
	Timezone                 string  `json:"timezone"`
	DefaultCancellationHours int     `json:"default_cancellation_hours"`
	NotificationEmail        *string `json:"notification_email"`
	UpdatedAt                string  `json:"updated_at,omitempty"`
}

func toSettingsDTO(s application.Settings) settingsDTO {
	return settingsDTO{
		OrganizationName:         s.OrganizationName,
		Timezone:                 s.Timezone,
		DefaultCancellationHours: s.DefaultCancellationHours,
		NotificationEmail:        s.NotificationEmail,
		UpdatedAt:                formatTime(s.UpdatedAt),
	}
}

type auditEntryDTO struct {
	ID         string  `json:"id"`
	ActorID    string  `json:"actor_id"`
	Action     string  `json:"action"`
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Details    *string `json:"details"`
	CreatedAt  string  `json:"created_at"`
}

type reportDTO struct {
	From            string           `json:"from"`
	To              string           `json:"to"`
	TotalBookings   int              `json:"total_bookings"`
	StatusBreakdown []statusCountDTO `json:"status_breakdown"`
	RoomUsage       []roomUsageDTO   `json:"room_usage"`
	PeakHours       []hourCountDTO   `json:"peak_hours"`
}

type statusCountDTO struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type roomUsageDTO struct {
	RoomID       string  `json:"room_id"`
	RoomName     string  `json:"room_name"`
	BookingCount int     `json:"booking_count"`
	Hours        float64 `json:"hours"`
}

type hourCountDTO struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

func toReportDTO(report application.Report) reportDTO {
	dto := reportDTO{
		From:            formatTime(report.From),
		To:              formatTime(report.To),
		TotalBookings:   report.TotalBookings,
		StatusBreakdown: make([]statusCountDTO, 0, len(report.StatusBreakdown)),
		RoomUsage:       make([]roomUsageDTO, 0, len(report.RoomUsage)),
		PeakHours:       make([]hourCountDTO, 0, len(report.PeakHours)),
	}
	for _, s := range report.StatusBreakdown {
		dto.StatusBreakdown = append(dto.StatusBreakdown, statusCountDTO{Status: string(s.Status), Count: s.Count})
	}
	for _, u := range report.RoomUsage {
		dto.RoomUsage = append(dto.RoomUsage, roomUsageDTO{RoomID: u.RoomID, RoomName: u.RoomName, BookingCount: u.BookingCount, Hours: u.Hours})
	}
	for _, p := range report.PeakHours {
		dto.PeakHours = append(dto.PeakHours, hourCountDTO{Hour: p.Hour, Count: p.Count})
	}
	return dto
}
