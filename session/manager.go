// sqadmin/session/manager.go
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sqadmin/backend"
	"sqadmin/database"
)

// Manager owns every live session. It hydrates persisted sessions once at
// startup; profiles are not persisted and resolve lazily on the first guarded
// request after a restart.
type Manager struct {
	db     *database.DatabaseService
	client *backend.Client
	logger *slog.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	hydrating atomic.Bool
}

// NewManager creates a manager in the hydrating state; call Hydrate before
// serving.
func NewManager(db *database.DatabaseService, ttl time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		db:       db,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	m.hydrating.Store(true)
	return m
}

// SetClient wires the API client used for profile refreshes. The client's
// TokenSource is this manager, so the two are constructed in sequence.
func (m *Manager) SetClient(c *backend.Client) { m.client = c }

// Token implements backend.TokenSource: the bearer token of whatever session
// rides on the request context.
func (m *Manager) Token(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Token()
	}
	return ""
}

// IsHydrating reports whether startup hydration is still running. Guarded
// views render a plain loading page during this window instead of deciding
// anything about access.
func (m *Manager) IsHydrating() bool { return m.hydrating.Load() }

// Hydrate loads persisted sessions, drops the stale ones, and leaves the
// hydrating state. Profiles stay unresolved here; a dead upstream at boot
// must not block startup.
func (m *Manager) Hydrate() error {
	defer m.hydrating.Store(false)

	if pruned, err := m.db.PruneSessions(m.ttl); err != nil {
		return err
	} else if pruned > 0 {
		m.logger.Info("Pruned stale sessions", "count", pruned)
	}

	records, err := m.db.ListSessions()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.sessions[rec.ID] = &Session{ID: rec.ID, token: rec.Token}
	}
	m.logger.Info("Session store hydrated", "sessions", len(records))
	return nil
}

// Get returns the live session for an ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Login persists a freshly issued token under a new session and kicks off an
// asynchronous profile refresh. The caller sees the session immediately; the
// profile reconciles when the refresh lands.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	sess := &Session{ID: uuid.New().String(), token: token}

	if err := m.db.SaveSessionToken(sess.ID, token); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	go func() {
		if err := m.RefreshUser(context.Background(), sess); err != nil {
			m.logger.Warn("Post-login profile refresh failed", "session", sess.ID, "error", err)
		}
	}()

	return sess, nil
}

// Logout clears the persisted and in-memory token and profile synchronously.
// It is idempotent.
func (m *Manager) Logout(sess *Session) {
	if sess == nil {
		return
	}
	m.invalidate(sess)
}

// RefreshUser resolves the current profile and replaces it wholesale. Any
// failure, transport or application-level, means the token is no longer
// good: the session is torn down entirely. This is the sole mechanism by
// which a stale or revoked token is detected.
func (m *Manager) RefreshUser(ctx context.Context, sess *Session) error {
	if sess.Token() == "" {
		m.invalidate(sess)
		return backend.ErrNoToken
	}

	profile, err := m.client.CurrentUser(WithSession(ctx, sess))
	if err != nil {
		m.invalidate(sess)
		return err
	}

	sess.setUser(&profile)
	return nil
}

// Touch records activity for session pruning; failures are only logged.
func (m *Manager) Touch(sess *Session) {
	if err := m.db.TouchSession(sess.ID); err != nil {
		m.logger.Error("Failed to touch session", "session", sess.ID, "error", err)
	}
}

func (m *Manager) invalidate(sess *Session) {
	if err := m.db.DeleteSessionToken(sess.ID); err != nil {
		m.logger.Error("Failed to delete persisted session", "session", sess.ID, "error", err)
	}
	sess.clear()

	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.mu.Unlock()
}
