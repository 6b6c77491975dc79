package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/persistence/sqlite/migration"
)

// ConnectionPool owns the *sql.DB shared by every repository of a Storage.
type ConnectionPool struct {
	db     *sql.DB
	config migration.SQLiteConfig
}

// NewConnectionPool opens the database described by config.
func NewConnectionPool(config migration.SQLiteConfig) (*ConnectionPool, error) {
	db, err := migration.OpenDB(config)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open pool: %w", err)
	}
	return &ConnectionPool{db: db, config: config}, nil
}

// DB exposes the pool to the migration runner.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

func (cp *ConnectionPool) Close() error {
	if cp == nil || cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc runs inside WithTransaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction commits when fn succeeds and rolls back on error or panic.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) (err error) {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	committed = true
	return nil
}

// QueryHelper runs context aware statements against the pool.
type QueryHelper struct {
	pool *ConnectionPool
}

func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.db.QueryContext(ctx, query, args...)
}

func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, query, args...)
}

// constraintRules maps SQLite error text onto persistence sentinels. The
// driver reports constraint failures only through the message.
var constraintRules = []struct {
	fragments []string
	sentinel  error
}{
	{fragments: []string{"UNIQUE constraint failed"}, sentinel: persistence.ErrDuplicate},
	{fragments: []string{"FOREIGN KEY constraint failed"}, sentinel: persistence.ErrForeignKeyViolation},
	{fragments: []string{"CHECK constraint failed", "NOT NULL constraint failed"}, sentinel: persistence.ErrConstraintViolation},
}

// ErrorMapper translates driver errors for the application layer.
type ErrorMapper struct{}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError wraps err with the matching persistence sentinel. Busy and locked
// databases surface as context.DeadlineExceeded so callers report a timeout.
func (em *ErrorMapper) MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return persistence.ErrNotFound
	}

	msg := err.Error()
	for _, rule := range constraintRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %v", rule.sentinel, err)
			}
		}
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// requireAffected reports ErrNotFound when a write touched no rows.
func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rows == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
