// Package migration applies the versioned SQLite schema for the booking store.
//
// Migration files live in the embedded migrations directory and follow the
// naming convention {version}_{description}.sql (e.g. "001_initial_schema.sql").
// Each file runs inside its own transaction and is recorded in the
// schema_migrations table together with its checksum and execution time, so
// re-running the manager against an up-to-date database is a no-op.
//
// Example usage:
//
//	manager := migration.NewManager(db, migration.Embedded(), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
