package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Executor runs migrations and maintains the schema_migrations table.
type Executor struct {
	db *sql.DB
}

// NewExecutor creates a migration executor bound to db.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)
	`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return newMigrationError("", "", "create schema_migrations table", err)
	}
	return nil
}

// Apply runs every statement of m and records it in one transaction.
func (e *Executor) Apply(ctx context.Context, m Migration) (elapsed time.Duration, err error) {
	started := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = newMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1),
				fmt.Errorf("%w: %v", ErrMigrationFailed, execErr))
			return 0, err
		}
	}

	elapsed = time.Since(started)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds(),
	)
	if err != nil {
		err = newMigrationError(m.Version, m.FilePath, "record migration", err)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		err = newMigrationError(m.Version, m.FilePath, "commit transaction", err)
		return 0, err
	}
	return elapsed, nil
}

// Applied returns recorded migrations ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY version ASC
	`)
	if err != nil {
		return nil, newMigrationError("", "", "query applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			item      AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&item.Version, &appliedAt, &elapsedMs, &item.Checksum); err != nil {
			return nil, newMigrationError("", "", "scan applied migration", err)
		}
		if item.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, newMigrationError(item.Version, "", "parse applied_at", err)
		}
		item.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, item)
	}
	if err := rows.Err(); err != nil {
		return nil, newMigrationError("", "", "iterate applied migrations", err)
	}
	return applied, nil
}

// IsVersionApplied reports whether version is already recorded.
func (e *Executor) IsVersionApplied(ctx context.Context, version string) (bool, error) {
	var exists int
	err := e.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, newMigrationError(version, "", "check version applied", err)
	}
	return true, nil
}
