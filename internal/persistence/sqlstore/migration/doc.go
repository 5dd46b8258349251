// Package migration applies versioned SQL schema files to the schedule database.
//
// Migration files are read from an fs.FS (the service embeds its own set) and
// follow the naming convention {version}_{description}.sql, for example
// "001_catalog.sql". Each file runs in its own transaction and is recorded in
// the schema_migrations table so it is never applied twice. The same files are
// executed against SQLite and Postgres; statements use "?" placeholders and the
// executor rebinds them for the configured driver.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(), NewSQLExecutor(db, DriverSQLite), files, ".", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
