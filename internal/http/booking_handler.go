package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/roombook/internal/application"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.CreateBookingResult, error)
	UpdateBookingStatus(ctx context.Context, params application.UpdateBookingStatusParams) (application.Booking, error)
	ListBookings(ctx context.Context, principal application.Principal, filter application.BookingFilter) ([]application.BookingView, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.BookingView, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	RoomAvailability(ctx context.Context, principal application.Principal, at time.Time) ([]application.RoomAvailability, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base, now: time.Now}
}

// WithClock overrides the instant used when /api/availability omits ?at=.
func (h *BookingHandler) WithClock(now func() time.Time) *BookingHandler {
	if h != nil && now != nil {
		h.now = now
	}
	return h
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", req.RoomID)

	input, err := req.toInput(principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid booking times", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}

	result, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := msgBookingApproved
	if result.Booking.Status == application.BookingPending {
		message = msgBookingPending
	}

	logger.With("booking_id", result.Booking.ID, "status", result.Booking.Status).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingCreatedResponse{
		Data:     toBookingDTO(application.BookingView{Booking: result.Booking}),
		Message:  message,
		Warnings: toWarningDTOs(result.Warnings),
	})
}

// Update applies a status change: an administrative transition or an owner cancellation.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	bookingID := resourceID(r, req.ID)
	if bookingID == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID, "status", req.Status)

	booking, err := h.service.UpdateBookingStatus(r.Context(), application.UpdateBookingStatusParams{
		Principal:          principal,
		BookingID:          bookingID,
		Status:             application.BookingStatus(strings.TrimSpace(req.Status)),
		RejectionReason:    trimmedPtr(req.RejectionReason),
		CancellationReason: trimmedPtr(req.CancellationReason),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking status updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(application.BookingView{Booking: booking}), statusMessage(booking.Status))
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := resourceID(r, "")
	if bookingID == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", bookingID)
	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeData(r.Context(), w, http.StatusOK, deletedDTO{ID: bookingID}, "予約を削除しました。")
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	filter, err := buildBookingFilter(r.URL.Query())
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid booking filter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	views, err := h.service.ListBookings(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]bookingDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toBookingDTO(view))
	}
	logger.With("result_count", len(out)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeData(r.Context(), w, http.StatusOK, out, "")
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := resourceID(r, "")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "booking_id", bookingID)

	view, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toBookingDTO(view), "")
}

// Availability reports busy or available for every active room at ?at= or now.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Availability", "principal_id", principal.UserID)

	at, err := parseOptionalTime(r.URL.Query().Get("at"))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid availability instant", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}
	instant := h.now()
	if at != nil {
		instant = *at
	}

	results, err := h.service.RoomAvailability(r.Context(), principal, instant)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]availabilityDTO, 0, len(results))
	for _, res := range results {
		dto := availabilityDTO{Room: toRoomDTO(res.Room), Status: string(res.Status)}
		if res.Booking != nil {
			b := toBookingDTO(application.BookingView{Booking: *res.Booking})
			dto.Booking = &b
		}
		out = append(out, dto)
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, out, "")
}

func statusMessage(status application.BookingStatus) string {
	switch status {
	case application.BookingApproved:
		return "予約を承認しました。"
	case application.BookingRejected:
		return "予約を却下しました。"
	case application.BookingCancelled:
		return "予約をキャンセルしました。"
	default:
		return ""
	}
}

func buildBookingFilter(values url.Values) (application.BookingFilter, error) {
	filter := application.BookingFilter{
		UserID: strings.TrimSpace(values.Get("userId")),
		RoomID: strings.TrimSpace(values.Get("roomId")),
		Status: application.BookingStatus(strings.TrimSpace(values.Get("status"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return application.BookingFilter{}, errInvalidQuery
	}

	from, err := parseOptionalTime(values.Get("from"))
	if err != nil {
		return application.BookingFilter{}, err
	}
	to, err := parseOptionalTime(values.Get("to"))
	if err != nil {
		return application.BookingFilter{}, err
	}
	filter.EndsAfter = from
	filter.StartsBefore = to
	return filter, nil
}

type bookingRequest struct {
	RoomID         string   `json:"room_id"`
	UserID         string   `json:"user_id"`
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	AttendeeCount  int      `json:"attendee_count"`
	Attendees      []string `json:"attendees"`
	IsRecurring    bool     `json:"is_recurring"`
	RecurrenceRule *string  `json:"recurrence_rule"`
}

// toInput parses the request times. A missing user_id books for the caller.
func (r bookingRequest) toInput(principal application.Principal) (application.BookingInput, error) {
	input := application.BookingInput{
		RoomID:         strings.TrimSpace(r.RoomID),
		UserID:         strings.TrimSpace(r.UserID),
		Title:          strings.TrimSpace(r.Title),
		Description:    trimmedPtr(r.Description),
		AttendeeCount:  r.AttendeeCount,
		Attendees:      r.Attendees,
		IsRecurring:    r.IsRecurring,
		RecurrenceRule: trimmedPtr(r.RecurrenceRule),
	}
	if input.UserID == "" {
		input.UserID = principal.UserID
	}

	start, err := parseOptionalTime(r.StartTime)
	if err != nil {
		return application.BookingInput{}, err
	}
	end, err := parseOptionalTime(r.EndTime)
	if err != nil {
		return application.BookingInput{}, err
	}
	if start != nil {
		input.Start = *start
	}
	if end != nil {
		input.End = *end
	}
	return input, nil
}

type bookingStatusRequest struct {
	ID                 string  `json:"id"`
	Status             string  `json:"status"`
	RejectionReason    *string `json:"rejection_reason"`
	CancellationReason *string `json:"cancellation_reason"`
}

type bookingCreatedResponse struct {
	Data     bookingDTO           `json:"data"`
	Message  string               `json:"message"`
	Warnings []conflictWarningDTO `json:"warnings,omitempty"`
}

type bookingDTO struct {
	ID                       string          `json:"id"`
	RoomID                   string          `json:"room_id"`
	UserID                   string          `json:"user_id"`
	Title                    string          `json:"title"`
	Description              *string         `json:"description"`
	StartTime                string          `json:"start_time"`
	EndTime                  string          `json:"end_time"`
	AttendeeCount            int             `json:"attendee_count"`
	Attendees                []string        `json:"attendees"`
	Status                   string          `json:"status"`
	RequiresApprovalSnapshot bool            `json:"requires_approval_snapshot"`
	RejectionReason          *string         `json:"rejection_reason"`
	CancellationReason       *string         `json:"cancellation_reason"`
	ApprovedBy               *string         `json:"approved_by"`
	ApprovedAt               *string         `json:"approved_at"`
	CancelledBy              *string         `json:"cancelled_by"`
	CancelledAt              *string         `json:"cancelled_at"`
	IsRecurring              bool            `json:"is_recurring"`
	RecurrenceRule           *string         `json:"recurrence_rule"`
	CreatedAt                string          `json:"created_at"`
	UpdatedAt                string          `json:"updated_at"`
	Room                     *roomSummaryDTO `json:"room,omitempty"`
	User                     *userSummaryDTO `json:"user,omitempty"`
}

type roomSummaryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Color    string `json:"color"`
}

type userSummaryDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type conflictWarningDTO struct {
	BookingID   string `json:"booking_id"`
	Type        string `json:"type"`
	RoomID      string `json:"room_id,omitempty"`
	Participant string `json:"participant,omitempty"`
}

type availabilityDTO struct {
	Room    roomDTO     `json:"room"`
	Status  string      `json:"status"`
	Booking *bookingDTO `json:"booking"`
}

func toBookingDTO(view application.BookingView) bookingDTO {
	b := view.Booking
	dto := bookingDTO{
		ID:                       b.ID,
		RoomID:                   b.RoomID,
		UserID:                   b.UserID,
		Title:                    b.Title,
		Description:              b.Description,
		StartTime:                formatTime(b.Start),
		EndTime:                  formatTime(b.End),
		AttendeeCount:            b.AttendeeCount,
		Attendees:                nonNil(b.Attendees),
		Status:                   string(b.Status),
		RequiresApprovalSnapshot: b.RequiresApprovalSnapshot,
		RejectionReason:          b.RejectionReason,
		CancellationReason:       b.CancellationReason,
		ApprovedBy:               b.ApprovedBy,
		ApprovedAt:               formatTimePtr(b.ApprovedAt),
		CancelledBy:              b.CancelledBy,
		CancelledAt:              formatTimePtr(b.CancelledAt),
		IsRecurring:              b.IsRecurring,
		RecurrenceRule:           b.RecurrenceRule,
		CreatedAt:                formatTime(b.CreatedAt),
		UpdatedAt:                formatTime(b.UpdatedAt),
	}
	if view.Room != nil {
		dto.Room = &roomSummaryDTO{ID: view.Room.ID, Name: view.Room.Name, Location: view.Room.Location, Color: view.Room.Color}
	}
	if view.User != nil {
		dto.User = &userSummaryDTO{ID: view.User.ID, DisplayName: view.User.DisplayName, Email: view.User.Email}
	}
	return dto
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			BookingID:   warning.BookingID,
			Type:        warning.Type,
			RoomID:      warning.RoomID,
			Participant: warning.Participant,
		})
	}
	return out
}
