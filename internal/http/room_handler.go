package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombook/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, principal application.Principal, filter application.RoomFilter) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	active, err := parseOptionalBool(r.URL.Query().Get("active"))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid active filter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	rooms, err := h.service.ListRooms(r.Context(), principal, application.RoomFilter{Active: active})
	if err != nil {
		logger.ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(r.Context(), "rooms listed")
	h.responder.writeData(r.Context(), w, http.StatusOK, toRoomDTOs(rooms), "")
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := resourceID(r, "")
	if roomID == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeData(r.Context(), w, http.StatusOK, toRoomDTO(room), "")
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, toRoomDTO(room), "会議室を作成しました。")
}

// Update applies a partial update. The id comes from the route or the body.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	roomID := resourceID(r, req.ID)
	if roomID == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Patch:     req.toPatch(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeData(r.Context(), w, http.StatusOK, toRoomDTO(room), "会議室を更新しました。")
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := resourceID(r, "")
	if roomID == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing room id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		logger.ErrorContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeData(r.Context(), w, http.StatusOK, deletedDTO{ID: roomID}, "会議室を削除しました。")
}

type roomRequest struct {
	ID                 string    `json:"id"`
	Name               *string   `json:"name"`
	Description        *string   `json:"description"`
	Capacity           *int      `json:"capacity"`
	Location           *string   `json:"location"`
	Equipment          *[]string `json:"equipment"`
	Tags               *[]string `json:"tags"`
	ImageURLs          *[]string `json:"image_urls"`
	Color              *string   `json:"color"`
	RequiresApproval   *bool     `json:"requires_approval"`
	CancellationHours  *int      `json:"cancellation_hours"`
	TimeSlotMinutes    *int      `json:"time_slot_minutes"`
	MinDurationMinutes *int      `json:"min_duration_minutes"`
	MaxDurationMinutes *int      `json:"max_duration_minutes"`
	Bookable           *bool     `json:"bookable"`
	Active             *bool     `json:"active"`
}

func (r roomRequest) toInput() application.RoomInput {
	input := application.RoomInput{
		Description:        trimmedPtr(r.Description),
		CancellationHours:  r.CancellationHours,
		TimeSlotMinutes:    r.TimeSlotMinutes,
		MinDurationMinutes: r.MinDurationMinutes,
		MaxDurationMinutes: r.MaxDurationMinutes,
		Bookable:           r.Bookable,
		Active:             r.Active,
	}
	if r.Name != nil {
		input.Name = strings.TrimSpace(*r.Name)
	}
	if r.Capacity != nil {
		input.Capacity = *r.Capacity
	}
	if r.Location != nil {
		input.Location = strings.TrimSpace(*r.Location)
	}
	if r.Equipment != nil {
		input.Equipment = *r.Equipment
	}
	if r.Tags != nil {
		input.Tags = *r.Tags
	}
	if r.ImageURLs != nil {
		input.ImageURLs = *r.ImageURLs
	}
	if r.Color != nil {
		input.Color = strings.TrimSpace(*r.Color)
	}
	if r.RequiresApproval != nil {
		input.RequiresApproval = *r.RequiresApproval
	}
	return input
}

func (r roomRequest) toPatch() application.RoomPatch {
	return application.RoomPatch{
		Name:               trimmedPtr(r.Name),
		Description:        trimmedPtr(r.Description),
		Capacity:           r.Capacity,
		Location:           trimmedPtr(r.Location),
		Equipment:          r.Equipment,
		Tags:               r.Tags,
		ImageURLs:          r.ImageURLs,
		Color:              trimmedPtr(r.Color),
		RequiresApproval:   r.RequiresApproval,
		CancellationHours:  r.CancellationHours,
		TimeSlotMinutes:    r.TimeSlotMinutes,
		MinDurationMinutes: r.MinDurationMinutes,
		MaxDurationMinutes: r.MaxDurationMinutes,
		Bookable:           r.Bookable,
		Active:             r.Active,
	}
}

type roomDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	Capacity           int      `json:"capacity"`
	Location           string   `json:"location"`
	Equipment          []string `json:"equipment"`
	Tags               []string `json:"tags"`
	ImageURLs          []string `json:"image_urls"`
	Color              string   `json:"color"`
	RequiresApproval   bool     `json:"requires_approval"`
	CancellationHours  int      `json:"cancellation_hours"`
	TimeSlotMinutes    int      `json:"time_slot_minutes"`
	MinDurationMinutes *int     `json:"min_duration_minutes"`
	MaxDurationMinutes *int     `json:"max_duration_minutes"`
	Bookable           bool     `json:"bookable"`
	Active             bool     `json:"active"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:                 room.ID,
		Name:               room.Name,
		Description:        room.Description,
		Capacity:           room.Capacity,
		Location:           room.Location,
		Equipment:          nonNil(room.Equipment),
		Tags:               nonNil(room.Tags),
		ImageURLs:          nonNil(room.ImageURLs),
		Color:              room.Color,
		RequiresApproval:   room.RequiresApproval,
		CancellationHours:  room.CancellationHours,
		TimeSlotMinutes:    room.TimeSlotMinutes,
		MinDurationMinutes: room.MinDurationMinutes,
		MaxDurationMinutes: room.MaxDurationMinutes,
		Bookable:           room.Bookable,
		Active:             room.Active,
		CreatedAt:          formatTime(room.CreatedAt),
		UpdatedAt:          formatTime(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
