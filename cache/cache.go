// sqadmin/cache/cache.go

// Package cache is a small in-memory memoization table keyed by (operation
// identity, parameters). Views read through it so that repeated renders of
// the same filtered page reuse one upstream call; mutating actions invalidate
// their list's key prefix to force a refetch, which is the whole revalidation
// model: there is no background refresh.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   any
	expires time.Time
}

// Store is a TTL'd fetch cache. Errors are never cached: a failed fetch
// leaves the key empty so the next render retries.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a store whose entries live for ttl. A non-positive ttl disables
// caching entirely; GetOrFetch always calls through.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key joins an operation identity and its parameters into a cache key. The
// first part doubles as the invalidation prefix.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetOrFetch returns the cached value for key, or runs fetch and caches its
// result. fetch runs outside the lock; two concurrent misses on one key may
// both call upstream, matching the original's fire-and-reconcile behavior.
func (s *Store) GetOrFetch(key string, fetch func() (any, error)) (any, error) {
	if s.ttl > 0 {
		s.mu.Lock()
		if e, ok := s.entries[key]; ok && s.now().Before(e.expires) {
			s.mu.Unlock()
			return e.value, nil
		}
		s.mu.Unlock()
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.entries[key] = entry{value: value, expires: s.now().Add(s.ttl)}
		s.mu.Unlock()
	}
	return value, nil
}

// Invalidate drops every entry whose key starts with prefix.
func (s *Store) Invalidate(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
}

// Fetch is the typed read-through: a convenience over Store.GetOrFetch for
// callers that know the value's type.
func Fetch[T any](s *Store, key string, fetch func() (T, error)) (T, error) {
	value, err := s.GetOrFetch(key, func() (any, error) { return fetch() })
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}
