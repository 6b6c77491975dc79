package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/example/roombook/internal/application"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &application.ValidationError{FieldErrors: map[string]string{"capacity": "must be at least 1"}}, http.StatusBadRequest, msgValidation},
		{"missing required", &application.ValidationError{FieldErrors: map[string]string{"title": "is required"}}, http.StatusBadRequest, msgMissingRequired},
		{"unsupported type", application.ErrUnsupportedFileType, http.StatusBadRequest, msgUnsupportedType},
		{"too large", application.ErrFileTooLarge, http.StatusBadRequest, msgFileTooLarge},
		{"cancellation window", application.ErrCancellationWindowClosed, http.StatusBadRequest, msgCancelClosed},
		{"invalid credentials", application.ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidLogin},
		{"unauthorized", application.ErrUnauthorized, http.StatusUnauthorized, msgSessionInvalid},
		{"disabled", application.ErrAccountDisabled, http.StatusForbidden, msgAccountDisabled},
		{"forbidden", fmt.Errorf("wrap: %w", application.ErrForbidden), http.StatusForbidden, msgForbidden},
		{"not found", application.ErrNotFound, http.StatusNotFound, msgNotFound},
		{"duplicate is a validation failure", application.ErrAlreadyExists, http.StatusBadRequest, msgAlreadyExists},
		{"timeout", context.DeadlineExceeded, http.StatusInternalServerError, msgTimeout},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, msgInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := classifyError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if resp.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, resp.Error)
			}
		})
	}
}

func TestLocalizeValidationErrors(t *testing.T) {
	t.Parallel()

	details := localizeValidationErrors(&application.ValidationError{FieldErrors: map[string]string{
		"title":    "is required",
		"end_time": "start must be before end",
		"unknown":  "custom",
	}})

	if details["title"] != "タイトルは必須です。" {
		t.Fatalf("unexpected title message %q", details["title"])
	}
	if details["end_time"] != "終了日時は開始日時より後である必要があります。" {
		t.Fatalf("unexpected end_time message %q", details["end_time"])
	}
	if details["unknown"] != "custom" {
		t.Fatalf("expected untranslated message to pass through, got %q", details["unknown"])
	}
	if localizeValidationErrors(nil) != nil {
		t.Fatalf("expected nil details for nil error")
	}
}
