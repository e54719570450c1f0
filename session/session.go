// sqadmin/session/session.go

// Package session is the single source of truth for "is someone logged in,
// and are they an admin". Each browser gets a session row whose bearer token
// for the platform API is persisted in sqlite; the browser itself only holds
// a signed cookie naming the session. State is mutated exclusively through
// Login, Logout and RefreshUser.
package session

import (
	"context"
	"sync"

	"sqadmin/models"
)

type contextKey struct{}

// Session is one operator's console session.
type Session struct {
	ID string

	mu    sync.RWMutex
	token string
	user  *models.Profile
}

// Token returns the platform bearer token, empty once logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the resolved profile, nil until a refresh succeeds and nil
// again after invalidation.
func (s *Session) User() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAdmin reports whether the resolved profile grants console access. False
// while the profile is still unresolved.
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && models.IsAdminRole(u.Role)
}

// setUser installs a freshly resolved profile. A session that was logged out
// while the refresh was in flight stays cleared.
func (s *Session) setUser(u *models.Profile) {
	s.mu.Lock()
	if s.token != "" {
		s.user = u
	}
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// WithSession attaches a session to a request context so the API client's
// TokenSource can find it.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
