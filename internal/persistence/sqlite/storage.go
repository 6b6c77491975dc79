package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/persistence/sqlite/migration"
)

// Storage bundles every SQLite repository over one connection pool.
type Storage struct {
	*ProfileRepository
	*RoomRepository
	*BookingRepository
	*SessionRepository
	*AdminRepository

	pool   *ConnectionPool
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

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		ProfileRepository: NewProfileRepository(pool),
		RoomRepository:    NewRoomRepository(pool),
		BookingRepository: NewBookingRepository(pool),
		SessionRepository: NewSessionRepository(pool),
		AdminRepository:   NewAdminRepository(pool),
		pool:              pool,
		logger:            logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(s.pool.DB(), migration.Embedded(), s.logger)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
