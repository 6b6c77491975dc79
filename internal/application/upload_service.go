package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"
)

// MaxUploadBytes is the largest accepted room photo.
const MaxUploadBytes = 5 << 20

// roomImagePrefix is the object key prefix for room photos.
const roomImagePrefix = "rooms/"

var uploadExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectStore persists uploaded objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadParams describes one uploaded file. Size is the declared length and
// may be zero when unknown.
type UploadParams struct {
	Principal   Principal
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult identifies a stored object.
type UploadResult struct {
	Path        string
	URL         string
	ContentType string
	Size        int64
}

// UploadService validates room photos and forwards them to an object store.
type UploadService struct {
	store       ObjectStore
	idGenerator func() string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(store ObjectStore, idGenerator func() string, logger *slog.Logger) *UploadService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &UploadService{store: store, idGenerator: idGenerator, timeout: DefaultUpstreamTimeout, logger: defaultLogger(logger)}
}

// WithTimeout bounds each call to the object store.
func (s *UploadService) WithTimeout(d time.Duration) *UploadService {
	s.timeout = d
	return s
}

func (s *UploadService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UploadService", operation, attrs...)
}

// Upload checks the content type, then the size, then stores the file under
// a fresh rooms/<id>.<ext> key.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (result UploadResult, err error) {
	if s == nil {
		err = errServiceNil("UploadService")
		return
	}

	contentType := normalizeContentType(params.ContentType)
	logger := s.loggerWith(ctx, "Upload",
		"principal_id", params.Principal.UserID,
		"filename", params.Filename,
		"content_type", contentType,
		"declared_size", params.Size,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "upload failed", err)
			return
		}
		logger.With("path", result.Path, "size", result.Size).InfoContext(ctx, "upload stored")
	}()

	if err = require(params.Principal, CapManageRooms); err != nil {
		return
	}
	if s.store == nil {
		err = errors.New("object store not configured")
		return
	}

	ext, ok := uploadExtensions[contentType]
	if !ok {
		err = ErrUnsupportedFileType
		return
	}
	if params.Size > MaxUploadBytes {
		err = ErrFileTooLarge
		return
	}
	if params.Body == nil {
		err = ErrEmptyFile
		return
	}

	var data []byte
	data, err = io.ReadAll(io.LimitReader(params.Body, MaxUploadBytes+1))
	if err != nil {
		return
	}
	switch {
	case len(data) > MaxUploadBytes:
		err = ErrFileTooLarge
		return
	case len(data) == 0:
		err = ErrEmptyFile
		return
	}

	id := s.idGenerator()
	if id == "" {
		err = errors.New("upload id generator returned an empty id")
		return
	}
	key := roomImagePrefix + id + "." + ext

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var url string
	url, err = s.store.Put(callCtx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return
	}
	result = UploadResult{Path: key, URL: url, ContentType: contentType, Size: int64(len(data))}
	return
}

// DeleteUpload removes a previously uploaded room photo.
func (s *UploadService) DeleteUpload(ctx context.Context, principal Principal, objectPath string) (err error) {
	if s == nil {
		return errServiceNil("UploadService")
	}

	logger := s.loggerWith(ctx, "DeleteUpload", "principal_id", principal.UserID, "path", objectPath)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "upload delete failed", err)
			return
		}
		logger.InfoContext(ctx, "upload deleted")
	}()

	if err = require(principal, CapManageRooms); err != nil {
		return
	}
	if s.store == nil {
		return errors.New("object store not configured")
	}

	key, vErr := cleanObjectPath(objectPath)
	if vErr != nil {
		return vErr
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return mapRepoError(s.store.Delete(callCtx, key))
}

// cleanObjectPath accepts only keys under the room photo prefix.
func cleanObjectPath(raw string) (string, *ValidationError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "/")
	vErr := &ValidationError{}
	if trimmed == "" {
		vErr.add("path", msgRequired)
		return "", vErr
	}
	cleaned := path.Clean(trimmed)
	if cleaned != trimmed || !strings.HasPrefix(cleaned, roomImagePrefix) || cleaned == strings.TrimSuffix(roomImagePrefix, "/") {
		vErr.add("path", msgInvalid)
		return "", vErr
	}
	return cleaned, nil
}

func normalizeContentType(raw string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(mediaType)
}
