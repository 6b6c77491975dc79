// Package postgres implements the persistence repositories on PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/roombook/internal/persistence"
)

// Storage implements every persistence repository over one pgx pool.
type Storage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var (
	_ persistence.ProfileRepository   = (*Storage)(nil)
	_ persistence.IdentityRepository  = (*Storage)(nil)
	_ persistence.RoomRepository      = (*Storage)(nil)
	_ persistence.BookingRepository   = (*Storage)(nil)
	_ persistence.SessionRepository   = (*Storage)(nil)
	_ persistence.RoomBlockRepository = (*Storage)(nil)
	_ persistence.AuditRepository     = (*Storage)(nil)
	_ persistence.SettingsRepository  = (*Storage)(nil)
)

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Storage{pool: pool, logger: logger}, nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	started := time.Now()
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	s.logger.InfoContext(ctx, "postgres schema ensured", "duration", time.Since(started))
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// SQLSTATE codes mapped onto persistence sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// mapError converts pgx errors to persistence sentinels, keeping the driver
// error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", persistence.ErrForeignKeyViolation, pgErr.ConstraintName)
		case codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
		}
	}
	return err
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func listOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyToNil(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

func stampNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

const schema = `
CREATE TABLE IF NOT EXISTS identities (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    disabled BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'editor', 'user')),
    job_title TEXT,
    phone TEXT,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    fingerprint TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    capacity INTEGER NOT NULL CHECK (capacity > 0),
    location TEXT NOT NULL DEFAULT '',
    equipment TEXT[] NOT NULL DEFAULT '{}',
    tags TEXT[] NOT NULL DEFAULT '{}',
    image_urls TEXT[] NOT NULL DEFAULT '{}',
    color TEXT NOT NULL DEFAULT '#3B82F6',
    requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
    cancellation_hours INTEGER NOT NULL DEFAULT 24 CHECK (cancellation_hours >= 0),
    time_slot_minutes INTEGER NOT NULL DEFAULT 30 CHECK (time_slot_minutes > 0),
    min_duration_minutes INTEGER,
    max_duration_minutes INTEGER,
    bookable BOOLEAN NOT NULL DEFAULT TRUE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT,
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    attendee_count INTEGER NOT NULL DEFAULT 1 CHECK (attendee_count >= 1),
    attendees TEXT[] NOT NULL DEFAULT '{}',
    status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
    requires_approval_snapshot BOOLEAN NOT NULL DEFAULT FALSE,
    rejection_reason TEXT,
    cancellation_reason TEXT,
    approved_by TEXT,
    approved_at TIMESTAMPTZ,
    cancelled_by TEXT,
    cancelled_at TIMESTAMPTZ,
    is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
    recurrence_rule TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_bookings_room_start ON bookings(room_id, start_time);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);

CREATE TABLE IF NOT EXISTS room_blocks (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    reason TEXT,
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    CHECK (start_time < end_time)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    actor_id TEXT NOT NULL,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS org_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    organization_name TEXT NOT NULL,
    timezone TEXT NOT NULL,
    default_cancellation_hours INTEGER NOT NULL CHECK (default_cancellation_hours >= 0),
    notification_email TEXT,
    updated_at TIMESTAMPTZ NOT NULL
);
`
