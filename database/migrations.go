// sqadmin/database/migrations.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen);
		`,
	},
	// Future migrations will be added here.
}

// runMigrations applies any migration whose version has not been recorded.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var current uint
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range allMigrations {
		if m.Version <= current {
			continue
		}
		if _, err := db.Exec(m.Query); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, time.Now()); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		logger.Info("Applied database migration", "version", m.Version)
	}
	return nil
}
