package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScan(t *testing.T) {
	t.Run("orders by numeric version and reads descriptions", func(t *testing.T) {
		source := fstest.MapFS{
			"010_later.sql":   {Data: []byte("CREATE TABLE b (id TEXT);")},
			"002_earlier.sql": {Data: []byte("-- Description: Earlier table\nCREATE TABLE a (id TEXT);")},
			"README.md":       {Data: []byte("ignored")},
			"notes/003_x.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
		}

		migrations, err := Scan(source)
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "002" || migrations[1].Version != "010" {
			t.Fatalf("unexpected order: %s, %s", migrations[0].Version, migrations[1].Version)
		}
		if migrations[0].Description != "Earlier table" {
			t.Fatalf("expected description from content, got %q", migrations[0].Description)
		}
		if migrations[1].Description != "later" {
			t.Fatalf("expected description from filename, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatalf("expected checksum to be populated")
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		source := fstest.MapFS{
			"001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"01_b.sql":  {Data: []byte("CREATE TABLE b (id TEXT);")},
			"1_c.sql":   {Data: []byte("CREATE TABLE c (id TEXT);")},
			"001_d.sql": {Data: []byte("CREATE TABLE d (id TEXT);")},
		}
		if _, err := Scan(source); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects malformed names and empty files", func(t *testing.T) {
		if _, err := Scan(fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}}); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for bad name, got %v", err)
		}
		if _, err := Scan(fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing here\n")}}); !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile for empty file, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n-- comment only;\nCREATE INDEX i ON a(id);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	migrations, err := Scan(Embedded())
	if err != nil {
		t.Fatalf("Scan(Embedded()) failed: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatalf("expected embedded migrations")
	}
}
