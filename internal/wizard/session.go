package wizard

import (
	"sync"
	"time"

	"github.com/roomwise/roomwise/internal/handoff"
)

// Session is one browsing session's wizard: its store, controller and the
// handoff read by the results view.
type Session struct {
	ID         string
	Store      *Store
	Controller *Controller
	Handoff    *handoff.Handoff
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// NewSession wires a fresh store, handoff and controller together.
func NewSession(id string, requester PlanRequester, timeout time.Duration) *Session {
	store := NewStore()
	h := handoff.New()
	now := time.Now()
	return &Session{
		ID:         id,
		Store:      store,
		Controller: NewController(store, requester, h, timeout),
		Handoff:    h,
		CreatedAt:  now,
		lastSeen:   now,
	}
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Idle reports whether the session has been inactive for longer than ttl.
// Sessions with an outstanding plan request are never idle.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	if s.Controller.Pending() {
		return false
	}
	return now.Sub(s.LastSeen()) > ttl
}
