package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/roombook/internal/application"
)

type roomBlockService interface {
	ListRoomBlocks(ctx context.Context, principal application.Principal, roomID string) ([]application.RoomBlock, error)
	CreateRoomBlock(ctx context.Context, principal application.Principal, input application.RoomBlockInput) (application.RoomBlock, error)
	DeleteRoomBlock(ctx context.Context, principal application.Principal, roomID, blockID string) error
}

// RoomBlockHandler serves the blackout windows nested under a room.
type RoomBlockHandler struct {
	service   roomBlockService
	responder responder
	logger    *slog.Logger
}

func NewRoomBlockHandler(service roomBlockService, logger *slog.Logger) *RoomBlockHandler {
	base := defaultLogger(logger)
	return &RoomBlockHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomBlockHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomBlockHandler", operation, attrs...)
}

func (h *RoomBlockHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "room_id", roomID)

	blocks, err := h.service.ListRoomBlocks(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "room block list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]roomBlockDTO, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, toRoomBlockDTO(block))
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, out, "")
}

func (h *RoomBlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", roomID)

	var req roomBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode room block request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTime)
		return
	}

	input := application.RoomBlockInput{RoomID: roomID, Reason: trimmedPtr(req.Reason)}
	if start != nil {
		input.Start = *start
	}
	if end != nil {
		input.End = *end
	}

	block, err := h.service.CreateRoomBlock(r.Context(), principal, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "room block creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("block_id", block.ID).InfoContext(r.Context(), "room block created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, toRoomBlockDTO(block), "利用停止期間を登録しました。")
}

func (h *RoomBlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(chi.URLParam(r, "id"))
	blockID := strings.TrimSpace(chi.URLParam(r, "blockID"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID, "block_id", blockID)

	if err := h.service.DeleteRoomBlock(r.Context(), principal, roomID, blockID); err != nil {
		logger.ErrorContext(r.Context(), "room block delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room block deleted")
	h.responder.writeData(r.Context(), w, http.StatusOK, deletedDTO{ID: blockID}, "利用停止期間を削除しました。")
}

type roomBlockRequest struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason"`
}

type roomBlockDTO struct {
	ID        string  `json:"id"`
	RoomID    string  `json:"room_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason"`
	CreatedBy string  `json:"created_by"`
	CreatedAt string  `json:"created_at"`
}

func toRoomBlockDTO(block application.RoomBlock) roomBlockDTO {
	return roomBlockDTO{
		ID:        block.ID,
		RoomID:    block.RoomID,
		StartTime: formatTime(block.Start),
		EndTime:   formatTime(block.End),
		Reason:    block.Reason,
		CreatedBy: block.CreatedBy,
		CreatedAt: formatTime(block.CreatedAt),
	}
}
