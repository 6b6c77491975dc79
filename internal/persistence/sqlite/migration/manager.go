package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager orchestrates scanning, comparing and applying migrations.
type Manager struct {
	executor *Executor
	source   fs.FS
	logger   *slog.Logger
}

// NewManager wires a migration manager for db reading files from source.
func NewManager(db *sql.DB, source fs.FS, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		executor: NewExecutor(db),
		source:   source,
		logger:   logger.With("component", "migration"),
	}
}

// Run applies every pending migration in version order.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "checking database schema version",
		"current_version", status.CurrentVersion,
		"pending_count", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)),
		)
		logger.InfoContext(ctx, "applying migration")

		elapsed, err := m.executor.Apply(ctx, migration)
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return err
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	m.logger.InfoContext(ctx, "database migrations completed",
		"applied_count", len(status.Pending),
		"duration", time.Since(started),
	)
	return nil
}

// Status compares the embedded files with the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.source)
	if err != nil {
		return Status{}, err
	}

	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	appliedByVersion := make(map[string]AppliedMigration, len(applied))
	for _, item := range applied {
		appliedByVersion[item.Version] = item
	}

	status := Status{Applied: applied}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}

	for _, migration := range available {
		record, ok := appliedByVersion[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return Status{}, newMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}

	return status, nil
}
