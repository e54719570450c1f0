package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DatabaseService {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "test.db?_journal_mode=WAL&_foreign_keys=on")
	svc, err := InitDB(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { svc.DB.Close() })
	return svc
}

func TestSessionTokenRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveSessionToken("sid-1", "tok-abc"))

	got, err := db.GetSessionToken("sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", got)

	// Saving again under the same ID replaces the token.
	require.NoError(t, db.SaveSessionToken("sid-1", "tok-def"))
	got, err = db.GetSessionToken("sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-def", got)
}

func TestGetSessionTokenMissing(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetSessionToken("nope")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDeleteSessionTokenIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.SaveSessionToken("sid-1", "tok"))

	require.NoError(t, db.DeleteSessionToken("sid-1"))
	_, err := db.GetSessionToken("sid-1")
	assert.ErrorIs(t, err, ErrNoSession)

	// Second delete is a no-op, not an error.
	require.NoError(t, db.DeleteSessionToken("sid-1"))
}

func TestListAndPruneSessions(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.SaveSessionToken("old", "tok-old"))
	require.NoError(t, db.SaveSessionToken("new", "tok-new"))

	// Age out the first session by hand.
	_, err := db.DB.Exec("UPDATE sessions SET last_seen = ? WHERE id = 'old'", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	pruned, err := db.PruneSessions(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	records, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "tok-new", records[0].Token)
}
