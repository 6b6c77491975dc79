package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/roombook/internal/adapters"
	"github.com/example/roombook/internal/persistence/sqlite"
	"github.com/example/roombook/internal/persistence/sqlite/migration"
)

// SQLiteHarness is a migrated temporary SQLite database with application
// level repositories wrapped around it.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Repos   adapters.Repositories
}

// NewSQLiteHarness opens and migrates a database under tb.TempDir. It is
// closed automatically when the test ends.
func NewSQLiteHarness(tb testing.TB, now func() time.Time) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "roombook.db")
	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{Storage: storage, Repos: adapters.Wrap(storage, now)}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
