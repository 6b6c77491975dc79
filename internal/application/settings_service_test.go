package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombook/internal/persistence"
)

type settingsRepoStub struct {
	stored  *Settings
	getErr  error
	saveErr error
}

func (r *settingsRepoStub) GetSettings(ctx context.Context) (Settings, error) {
	if r.getErr != nil {
		return Settings{}, r.getErr
	}
	if r.stored == nil {
		return Settings{}, persistence.ErrNotFound
	}
	return *r.stored, nil
}

func (r *settingsRepoStub) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	if r.saveErr != nil {
		return Settings{}, r.saveErr
	}
	r.stored = &settings
	return settings, nil
}

func TestSettingsService(t *testing.T) {
	t.Run("returns defaults before first save", func(t *testing.T) {
		svc := NewSettingsService(&settingsRepoStub{}, nil, nil)
		got, err := svc.GetSettings(context.Background())
		if err != nil {
			t.Fatalf("expected defaults, got %v", err)
		}
		if got != DefaultSettings {
			t.Fatalf("expected default settings, got %+v", got)
		}
	})

	t.Run("current settings falls back on failure", func(t *testing.T) {
		svc := NewSettingsService(&settingsRepoStub{getErr: errors.New("timeout")}, nil, nil)
		if _, err := svc.GetSettings(context.Background()); err == nil {
			t.Fatalf("expected error from GetSettings")
		}
		if got := svc.CurrentSettings(context.Background()); got != DefaultSettings {
			t.Fatalf("expected defaults, got %+v", got)
		}
	})

	t.Run("update requires manage settings", func(t *testing.T) {
		svc := NewSettingsService(&settingsRepoStub{}, nil, nil)
		_, err := svc.UpdateSettings(context.Background(), editorPrincipal, Settings{OrganizationName: "Org", Timezone: "UTC"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("update validates timezone", func(t *testing.T) {
		svc := NewSettingsService(&settingsRepoStub{}, nil, nil)
		_, err := svc.UpdateSettings(context.Background(), adminPrincipal, Settings{OrganizationName: "Org", Timezone: "Nowhere/City"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("update persists and feeds location", func(t *testing.T) {
		now := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
		repo := &settingsRepoStub{}
		svc := NewSettingsService(repo, func() time.Time { return now }, nil)

		saved, err := svc.UpdateSettings(context.Background(), adminPrincipal, Settings{
			OrganizationName:         "  Acme  ",
			Timezone:                 "Asia/Tokyo",
			DefaultCancellationHours: 12,
			NotificationEmail:        strPtr(" "),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if saved.OrganizationName != "Acme" || saved.NotificationEmail != nil || !saved.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected saved settings %+v", saved)
		}
		if got := svc.Location(context.Background()).String(); got != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo location, got %q", got)
		}
	})
}
