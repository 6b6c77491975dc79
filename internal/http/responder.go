package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombook/internal/application"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errMissingID           = errors.New("ID を指定してください。")
	errInvalidTime         = errors.New("日時の形式が正しくありません。RFC3339 形式で指定してください。")
	errInvalidQuery        = errors.New("検索条件が正しくありません。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
	errMissingFile         = errors.New("アップロードするファイルを指定してください。")
)

const (
	msgInternal        = "サーバー内部でエラーが発生しました。"
	msgTimeout         = "処理がタイムアウトしました。時間をおいて再度お試しください。"
	msgValidation      = "入力内容に誤りがあります。"
	msgMissingRequired = "必須項目が入力されていません。"
	msgForbidden       = "この操作を実行する権限がありません。"
	msgNotFound        = "指定されたリソースが見つかりません。"
	msgAlreadyExists   = "同じ内容のデータが既に存在します。"
	msgInvalidLogin    = "メールアドレスまたはパスワードが正しくありません"
	msgAccountDisabled = "このアカウントは無効化されています。"
	msgSessionInvalid  = "セッションが無効です。再度ログインしてください。"
	msgSessionExpired  = "セッションの有効期限が切れました。再度ログインしてください。"
	msgCancelClosed    = "キャンセル可能な期限を過ぎているため、この予約はキャンセルできません。"
	msgUnsupportedType = "対応していないファイル形式です。JPEG、PNG、WebP、GIF のみアップロードできます。"
	msgFileTooLarge    = "ファイルサイズが大きすぎます。5MB 以下のファイルを指定してください。"
	msgEmptyFile       = "空のファイルはアップロードできません。"
	msgBookingApproved = "予約が確定しました。"
	msgBookingPending  = "予約を申請しました。承認をお待ちください。"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeData renders the success envelope.
func (r responder) writeData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	r.writeJSON(ctx, w, status, dataResponse{Data: data, Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" && status < http.StatusInternalServerError {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Error: message})
}

// handleServiceError maps application errors to statuses. Upstream detail is
// logged by the caller and never echoed to the client.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	status, resp := classifyError(err)
	r.writeJSON(ctx, w, status, resp)
}

func classifyError(err error) (int, errorResponse) {
	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		message := msgValidation
		if vErr.MissingRequired() {
			message = msgMissingRequired
		}
		return http.StatusBadRequest, errorResponse{Error: message, Details: localizeValidationErrors(vErr)}
	case errors.Is(err, application.ErrUnsupportedFileType):
		return http.StatusBadRequest, errorResponse{Error: msgUnsupportedType}
	case errors.Is(err, application.ErrFileTooLarge):
		return http.StatusBadRequest, errorResponse{Error: msgFileTooLarge}
	case errors.Is(err, application.ErrEmptyFile):
		return http.StatusBadRequest, errorResponse{Error: msgEmptyFile}
	case errors.Is(err, application.ErrCancellationWindowClosed):
		return http.StatusBadRequest, errorResponse{Error: msgCancelClosed}
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: msgInvalidLogin}
	case errors.Is(err, application.ErrSessionExpired):
		return http.StatusUnauthorized, errorResponse{Error: msgSessionExpired}
	case errors.Is(err, application.ErrUnauthorized), errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized, errorResponse{Error: msgSessionInvalid}
	case errors.Is(err, application.ErrAccountDisabled):
		return http.StatusForbidden, errorResponse{Error: msgAccountDisabled}
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: msgForbidden}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: msgNotFound}
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusBadRequest, errorResponse{Error: msgAlreadyExists}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, errorResponse{Error: msgTimeout}
	default:
		return http.StatusInternalServerError, errorResponse{Error: msgInternal}
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return msgForbidden
	case http.StatusNotFound:
		return msgNotFound
	default:
		return msgInternal
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(field, msg)
	}
	return translated
}

var fieldLabels = map[string]string{
	"name":                 "会議室名",
	"capacity":             "収容人数",
	"location":             "所在地",
	"color":                "表示色",
	"description":          "説明",
	"cancellation_hours":   "キャンセル期限",
	"time_slot_minutes":    "予約単位",
	"min_duration_minutes": "最短利用時間",
	"max_duration_minutes": "最長利用時間",
	"room_id":              "会議室",
	"user_id":              "予約者",
	"title":                "タイトル",
	"start_time":           "開始日時",
	"end_time":             "終了日時",
	"attendee_count":       "参加人数",
	"status":               "ステータス",
	"rejection_reason":     "却下理由",
	"email":                "メールアドレス",
	"password":             "パスワード",
	"display_name":         "表示名",
	"role":                 "権限",
	"organization_name":    "組織名",
	"timezone":             "タイムゾーン",
	"notification_email":   "通知先メールアドレス",
	"path":                 "パス",
	"id":                   "ID",
	"from":                 "開始日",
	"to":                   "終了日",
}

func translateValidationMessage(field, message string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch message {
	case "is required":
		return label + "は必須です。"
	case "is invalid":
		return label + "の形式が正しくありません。"
	case "is too long":
		return label + "が長すぎます。"
	case "is too short":
		return label + "が短すぎます。"
	case "must be at least 1":
		return label + "は 1 以上で指定してください。"
	case "must not be negative":
		return label + "は 0 以上で指定してください。"
	case "start must be before end":
		return "終了日時は開始日時より後である必要があります。"
	case "min duration must not exceed max duration":
		return "最短利用時間は最長利用時間以下で指定してください。"
	case "room is not accepting bookings":
		return "この会議室は現在予約を受け付けていません。"
	case "booking is shorter than the room minimum":
		return "予約時間が会議室の最短利用時間より短いです。"
	case "booking is longer than the room maximum":
		return "予約時間が会議室の最長利用時間を超えています。"
	case "rejection reason is required":
		return "却下する場合は理由を入力してください。"
	case "status must be one of approved, rejected, cancelled":
		return "ステータスは approved、rejected、cancelled のいずれかを指定してください。"
	case "you cannot delete your own account":
		return "自分自身のアカウントは削除できません。"
	default:
		return message
	}
}

type dataResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// deletedDTO identifies the resource a DELETE removed.
type deletedDTO struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
