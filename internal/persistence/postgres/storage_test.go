package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/roombook/internal/persistence"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: persistence.ErrNotFound},
		{name: "unique", err: &pgconn.PgError{Code: "23505", ConstraintName: "profiles_email_key"}, want: persistence.ErrDuplicate},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: persistence.ErrForeignKeyViolation},
		{name: "check", err: &pgconn.PgError{Code: "23514"}, want: persistence.ErrConstraintViolation},
		{name: "not null", err: &pgconn.PgError{Code: "23502"}, want: persistence.ErrConstraintViolation},
		{name: "wrapped", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), want: persistence.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		original := errors.New("connection reset")
		if got := mapError(original); got != original {
			t.Fatalf("expected original error, got %v", got)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if mapError(nil) != nil {
			t.Fatal("expected nil")
		}
	})
}

// openTestStorage connects to ROOMBOOK_TEST_DATABASE_URL, skipping when unset.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	url := os.Getenv("ROOMBOOK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ROOMBOOK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	storage, err := Open(ctx, url, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if _, err := storage.pool.Exec(ctx, `TRUNCATE bookings, room_blocks, rooms, sessions, profiles, identities, audit_log, org_settings`); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	return storage
}

func TestStorage_BookingRoundTrip(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	if err := storage.CreateRoom(ctx, persistence.Room{
		ID: "room1", Name: "A", Capacity: 4, Color: "#3B82F6", TimeSlotMinutes: 30,
		CancellationHours: 24, Bookable: true, Active: true, Equipment: []string{"tv"},
	}); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := storage.CreateProfile(ctx, persistence.Profile{ID: "user1", DisplayName: "U", Email: "u@example.com", Role: "user", Active: true}); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	start := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	booking := persistence.Booking{
		ID: "b1", RoomID: "room1", UserID: "user1", Title: "Sync", StartTime: start,
		EndTime: start.Add(time.Hour), AttendeeCount: 1, Status: "pending", RequiresApprovalSnapshot: true,
	}
	if err := storage.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	got, err := storage.GetBooking(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !got.StartTime.Equal(start) || !got.RequiresApprovalSnapshot || got.Attendees != nil {
		t.Fatalf("unexpected booking: %+v", got)
	}

	room, err := storage.GetRoom(ctx, "room1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if len(room.Equipment) != 1 || room.Tags != nil {
		t.Fatalf("unexpected lists: %+v", room)
	}

	if err := storage.CreateRoom(ctx, persistence.Room{ID: "room1", Name: "B", Capacity: 1, Color: "#000000", TimeSlotMinutes: 30}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
