// sqadmin/database/database.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoSession is returned when a session ID has no persisted token.
var ErrNoSession = errors.New("session not found")

// DatabaseService persists console sessions. It is the gateway's equivalent
// of the browser's local storage: one bearer token per session under a fixed
// key, nothing else.
type DatabaseService struct {
	DB     *sql.DB
	logger *slog.Logger
}

// SessionRecord is a persisted session row.
type SessionRecord struct {
	ID        string
	Token     string
	CreatedAt time.Time
	LastSeen  time.Time
}

// InitDB connects to the database and runs migrations.
func InitDB(dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("Database initialized")

	return &DatabaseService{DB: db, logger: logger}, nil
}

// SaveSessionToken persists (or replaces) the token for a session ID.
func (s *DatabaseService) SaveSessionToken(id, token string) error {
	now := time.Now()
	_, err := s.DB.Exec(`
		INSERT INTO sessions (id, token, created_at, last_seen) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, last_seen = excluded.last_seen`,
		id, token, now, now)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

// GetSessionToken returns the persisted token for a session ID.
func (s *DatabaseService) GetSessionToken(id string) (string, error) {
	var token string
	err := s.DB.QueryRow("SELECT token FROM sessions WHERE id = ?", id).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("reading session %s: %w", id, err)
	}
	return token, nil
}

// DeleteSessionToken removes a persisted session. Deleting a session that
// does not exist is not an error; logout must be idempotent.
func (s *DatabaseService) DeleteSessionToken(id string) error {
	if _, err := s.DB.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// TouchSession records activity on a session.
func (s *DatabaseService) TouchSession(id string) error {
	_, err := s.DB.Exec("UPDATE sessions SET last_seen = ? WHERE id = ?", time.Now(), id)
	return err
}

// ListSessions returns every persisted session, used for startup hydration.
func (s *DatabaseService) ListSessions() ([]SessionRecord, error) {
	rows, err := s.DB.Query("SELECT id, token, created_at, last_seen FROM sessions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("Failed to close rows in ListSessions", "error", err)
		}
	}()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.Token, &rec.CreatedAt, &rec.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneSessions drops sessions idle longer than maxIdle and returns how many
// were removed.
func (s *DatabaseService) PruneSessions(maxIdle time.Duration) (int64, error) {
	res, err := s.DB.Exec("DELETE FROM sessions WHERE last_seen < ?", time.Now().Add(-maxIdle))
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return res.RowsAffected()
}
