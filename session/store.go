package session

import (
	"sync"

	"github.com/grokini/tradebot/core"
)

// Store maps user identity to Session. Sessions are created lazily on first
// interaction and never evicted while the process runs; the map is bounded
// by the connected-user count.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	defaults core.UserSettings
}

// NewStore creates a session store seeding new sessions with the given
// default preferences.
func NewStore(defaults core.UserSettings) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		defaults: defaults,
	}
}

// Get returns the user's session, creating it on first use.
func (s *Store) Get(userID int64) *Session {
	s.mu.RLock()
	existing, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return existing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[userID]; ok {
		return existing
	}
	created := newSession(userID, s.defaults)
	s.sessions[userID] = created
	return created
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Teardown zeroes every connected signer. Called on process shutdown so
// secret material does not outlive the store.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		session.DisconnectWallet()
	}
}
