package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombook/internal/application"
)

// multipartOverhead leaves room for form boundaries and headers above the file limit.
const multipartOverhead = 1 << 20

type uploadService interface {
	Upload(ctx context.Context, params application.UploadParams) (application.UploadResult, error)
	DeleteUpload(ctx context.Context, principal application.Principal, objectPath string) error
}

type UploadHandler struct {
	service   uploadService
	responder responder
	logger    *slog.Logger
}

func NewUploadHandler(service uploadService, logger *slog.Logger) *UploadHandler {
	base := defaultLogger(logger)
	return &UploadHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UploadHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UploadHandler", operation, attrs...)
}

// Upload stores the multipart "file" field as a room image.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Upload", "principal_id", principal.UserID)

	if r.ContentLength > application.MaxUploadBytes+multipartOverhead {
		logger.ErrorContext(r.Context(), "upload body too large", "content_length", r.ContentLength, "error_kind", application.ErrorKind(application.ErrFileTooLarge))
		h.responder.handleServiceError(r.Context(), w, application.ErrFileTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, application.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(application.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.ErrorContext(r.Context(), "upload body too large", "error", err, "error_kind", application.ErrorKind(application.ErrFileTooLarge))
			h.responder.handleServiceError(r.Context(), w, application.ErrFileTooLarge)
			return
		}
		logger.ErrorContext(r.Context(), "failed to parse multipart form", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.ErrorContext(r.Context(), "missing upload file", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingFile)
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	logger = logger.With("filename", header.Filename, "content_type", contentType, "size", header.Size)

	result, err := h.service.Upload(r.Context(), application.UploadParams{
		Principal:   principal,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "upload failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("path", result.Path).InfoContext(r.Context(), "image uploaded")
	h.responder.writeData(r.Context(), w, http.StatusCreated, uploadDTO{
		Path:        result.Path,
		URL:         result.URL,
		ContentType: result.ContentType,
		Size:        result.Size,
	}, "画像をアップロードしました。")
}

// Delete removes the object named by ?path=.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	objectPath := r.URL.Query().Get("path")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "path", objectPath)

	if err := h.service.DeleteUpload(r.Context(), principal, objectPath); err != nil {
		logger.ErrorContext(r.Context(), "upload delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "image deleted")
	h.responder.writeData(r.Context(), w, http.StatusOK, deletedDTO{Path: objectPath}, "画像を削除しました。")
}

type uploadDTO struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
