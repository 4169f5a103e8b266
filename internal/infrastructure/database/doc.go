// Package database provides SQLite connectivity for graydeck.
//
// It opens the database file with WAL mode and a busy timeout, keeps a
// single connection (SQLite has one writer), and applies embedded schema
// migrations.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql, with an
// optional matching .down.sql. Each one is applied in its own transaction
// and recorded in schema_migrations.
package database
