package storage

import (
	"testing"
	"time"

	"github.com/roomwise/roomwise/internal/wizard"
)

func TestSessionStore(t *testing.T) {
	s := New()
	session := wizard.NewSession("abc", nil, 0)
	s.Set("abc", session)

	got, ok := s.Get("abc")
	if !ok || got != session {
		t.Fatalf("Expected stored session, got %v %v", got, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Expected missing session")
	}
	if len(s.GetAll()) != 1 || s.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", s.Len())
	}

	s.Delete("abc")
	if s.Len() != 0 {
		t.Errorf("Expected empty store after delete, got %d", s.Len())
	}
}

func TestSweep(t *testing.T) {
	s := New()
	s.Set("old", wizard.NewSession("old", nil, 0))
	s.Set("new", wizard.NewSession("new", nil, 0))

	future := time.Now().Add(time.Hour)
	s.GetAll()["new"].Touch()

	removed := s.Sweep(future, 30*time.Minute)
	if len(removed) != 2 {
		t.Fatalf("Expected both sessions idle an hour later, got %v", removed)
	}

	s.Set("fresh", wizard.NewSession("fresh", nil, 0))
	if removed := s.Sweep(time.Now(), 30*time.Minute); len(removed) != 0 {
		t.Errorf("Expected no sessions removed, got %v", removed)
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("Expected fresh session to survive sweep")
	}
}
