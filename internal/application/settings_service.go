package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"
)

// SettingsRepository reads and writes the organisation settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) (Settings, error)
}

// DefaultSettings is returned until an administrator saves the settings row.
var DefaultSettings = Settings{
	OrganizationName:         "Room Booking",
	Timezone:                 "UTC",
	DefaultCancellationHours: defaultCancellationHours,
}

// SettingsService manages organisation wide settings.
type SettingsService struct {
	repo   SettingsRepository
	audit  *AuditRecorder
	now    func() time.Time
	logger *slog.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo SettingsRepository, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	return &SettingsService{repo: repo, now: now, logger: defaultLogger(logger)}
}

// WithAudit sets the audit recorder.
func (s *SettingsService) WithAudit(audit *AuditRecorder) *SettingsService {
	s.audit = audit
	return s
}

// GetSettings returns the stored settings or the defaults.
func (s *SettingsService) GetSettings(ctx context.Context) (Settings, error) {
	if s == nil {
		return Settings{}, errServiceNil("SettingsService")
	}
	if s.repo == nil {
		return DefaultSettings, nil
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return DefaultSettings, nil
		}
		logFailure(ctx, serviceLogger(ctx, s.logger, "SettingsService", "GetSettings"), "failed to load settings", err)
		return Settings{}, err
	}
	return settings, nil
}

// CurrentSettings returns the settings, falling back to defaults on failure.
func (s *SettingsService) CurrentSettings(ctx context.Context) Settings {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return DefaultSettings
	}
	return settings
}

// Location resolves the configured timezone.
func (s *SettingsService) Location(ctx context.Context) *time.Location {
	loc, err := time.LoadLocation(s.CurrentSettings(ctx).Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpdateSettings validates and stores new settings.
func (s *SettingsService) UpdateSettings(ctx context.Context, principal Principal, input Settings) (settings Settings, err error) {
	if s == nil {
		err = errServiceNil("SettingsService")
		return
	}

	logger := serviceLogger(ctx, s.logger, "SettingsService", "UpdateSettings",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to update settings", err)
			return
		}
		logger.InfoContext(ctx, "settings updated")
	}()

	if err = require(principal, CapManageSettings); err != nil {
		return
	}

	input.OrganizationName = strings.TrimSpace(input.OrganizationName)
	input.Timezone = strings.TrimSpace(input.Timezone)
	input.NotificationEmail = normalizeOptionalString(input.NotificationEmail)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	input.UpdatedAt = s.now()

	if s.repo == nil {
		settings = input
		return
	}
	settings, err = s.repo.SaveSettings(ctx, input)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.audit.Record(ctx, principal.UserID, "settings.update", "settings", "org", nil)
	return
}
