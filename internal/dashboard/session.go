package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"autosales/internal/cache"
	"autosales/internal/core"
)

// SessionStore keeps one Selection per browser session. Entries expire after
// the TTL and the least recently used ones are dropped past the size limit;
// an unknown or expired session starts from the default selection.
type SessionStore struct {
	mu         sync.Mutex // serialises writes
	selections *cache.LRUCache[core.Selection]
}

func NewSessionStore(maxSessions int, ttl time.Duration) *SessionStore {
	return &SessionStore{selections: cache.NewLRUCache[core.Selection](maxSessions, ttl)}
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id has the shape NewSessionID produces.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session's selection, or the default one.
func (s *SessionStore) Get(id string) core.Selection {
	if sel, ok := s.selections.Get(id); ok {
		return sel
	}
	return core.DefaultSelection()
}

// Put stores sel and restarts the session's TTL.
func (s *SessionStore) Put(id string, sel core.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections.Set(id, sel)
}

// Update applies fn to the session's selection and stores the result, with
// no other write to the store in between. If fn fails nothing is stored and
// the previous selection is returned.
func (s *SessionStore) Update(id string, fn func(*core.Selection) error) (core.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.Get(id)
	sel := prev
	if err := fn(&sel); err != nil {
		return prev, err
	}
	s.selections.Set(id, sel)
	return sel, nil
}

// Cache exposes the backing cache for cleanup registration and metrics.
func (s *SessionStore) Cache() *cache.LRUCache[core.Selection] {
	return s.selections
}
