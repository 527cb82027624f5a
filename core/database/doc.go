// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration. The database is optional: it only backs the "database"
// snapshot source.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let callers verify that a table has the
// columns they read before relying on it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "snapshot_entries", "tenant", "class", "name")
package database
