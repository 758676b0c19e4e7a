package storage

import (
	"sync"
	"time"

	"github.com/roomwise/roomwise/internal/wizard"
)

// SessionStore holds the live wizard sessions, one per browsing session.
type SessionStore struct {
	sessions map[string]*wizard.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*wizard.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*wizard.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *wizard.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore) GetAll() map[string]*wizard.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*wizard.Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns their IDs.
func (s *SessionStore) Sweep(now time.Time, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, session := range s.sessions {
		if session.Idle(now, ttl) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
