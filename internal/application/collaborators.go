package application

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers booking notifications. Delivery is best effort.
type Notifier interface {
	NotifyBookingPending(ctx context.Context, booking Booking, room Room) error
	NotifyBookingDecision(ctx context.Context, booking Booking, room Room) error
}

// AuditRepository persists the administrative audit trail.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// AuditRecorder appends audit entries without failing the calling operation.
type AuditRecorder struct {
	repo        AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditRecorder constructs a recorder. A nil repository disables recording.
func NewAuditRecorder(repo AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuditRecorder {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuditRecorder{repo: repo, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Record stores entry, filling in the id and timestamp. Failures are logged.
func (r *AuditRecorder) Record(ctx context.Context, actorID, action, entityType, entityID string, details *string) {
	if r == nil || r.repo == nil {
		return
	}
	entry := AuditEntry{
		ID:         r.idGenerator(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  r.now(),
	}
	if err := r.repo.AppendAudit(ctx, entry); err != nil {
		serviceLogger(ctx, r.logger, "AuditRecorder", "Record",
			"action", action,
			"entity_id", entityID,
		).WarnContext(ctx, "failed to record audit entry", "error", err)
	}
}

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	repo   AuditRepository
	logger *slog.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: defaultLogger(logger)}
}

// ListAudit returns the newest entries first.
func (s *AuditService) ListAudit(ctx context.Context, principal Principal, limit int) (entries []AuditEntry, err error) {
	if s == nil {
		return nil, errServiceNil("AuditService")
	}
	if err = require(principal, CapManageSettings); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err = s.repo.ListAudit(ctx, limit)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, serviceLogger(ctx, s.logger, "AuditService", "ListAudit"), "failed to list audit entries", err)
	}
	return
}
