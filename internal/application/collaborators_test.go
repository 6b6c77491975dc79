package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type auditRepoStub struct {
	entries   []AuditEntry
	appendErr error
	listLimit int
}

func (a *auditRepoStub) AppendAudit(ctx context.Context, entry AuditEntry) error {
	if a.appendErr != nil {
		return a.appendErr
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *auditRepoStub) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	a.listLimit = limit
	return a.entries, nil
}

type notifierStub struct {
	pending   []string
	decisions []string
	err       error
}

func (n *notifierStub) NotifyBookingPending(ctx context.Context, booking Booking, room Room) error {
	n.pending = append(n.pending, booking.ID)
	return n.err
}

func (n *notifierStub) NotifyBookingDecision(ctx context.Context, booking Booking, room Room) error {
	n.decisions = append(n.decisions, booking.ID+":"+string(booking.Status))
	return n.err
}

func TestAuditRecorder_Record(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo := &auditRepoStub{}
	recorder := NewAuditRecorder(repo, func() string { return "audit-1" }, func() time.Time { return now }, nil)

	recorder.Record(context.Background(), "admin-1", "room.create", "room", "room-1", nil)
	if len(repo.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.ID != "audit-1" || entry.ActorID != "admin-1" || !entry.CreatedAt.Equal(now) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	failing := NewAuditRecorder(&auditRepoStub{appendErr: errors.New("disk full")}, nil, nil, nil)
	failing.Record(context.Background(), "admin-1", "room.delete", "room", "room-1", nil)

	var nilRecorder *AuditRecorder
	nilRecorder.Record(context.Background(), "admin-1", "room.delete", "room", "room-1", nil)
}

func TestAuditService_ListAudit(t *testing.T) {
	t.Parallel()

	repo := &auditRepoStub{entries: []AuditEntry{{ID: "a"}}}
	svc := NewAuditService(repo, nil)

	if _, err := svc.ListAudit(context.Background(), editorPrincipal, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for editor, got %v", err)
	}

	entries, err := svc.ListAudit(context.Background(), adminPrincipal, 0)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(entries) != 1 || repo.listLimit != 100 {
		t.Fatalf("expected default limit and one entry, got %d entries limit %d", len(entries), repo.listLimit)
	}
}
