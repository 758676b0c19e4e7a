// Package handoff carries a finished design plan from the wizard to the
// results view of the same browsing session.
package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/roomwise/roomwise/internal/models"
)

// Slot keys.
const (
	SlotDesignPlan      = "designPlan"
	SlotUserPreferences = "userPreferences"
)

// ErrNoData is returned by Retrieve when nothing has been handed off.
var ErrNoData = errors.New("no design plan in this session")

// Result is what the results view renders.
type Result struct {
	Plan        models.DesignPlan          `json:"designPlan"`
	Preferences models.PersonalPreferences `json:"userPreferences"`
}

// Handoff holds two string-keyed slots with the serialized plan and
// preferences. The zero value is ready to use.
type Handoff struct {
	mu    sync.RWMutex
	slots map[string]string
}

// New returns an empty Handoff.
func New() *Handoff {
	return &Handoff{slots: make(map[string]string, 2)}
}

// Store serializes plan and prefs into their slots.
func (h *Handoff) Store(plan *models.DesignPlan, prefs models.PersonalPreferences) error {
	if plan == nil {
		return fmt.Errorf("store handoff: nil plan")
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to serialize design plan: %w", err)
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to serialize preferences: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.slots == nil {
		h.slots = make(map[string]string, 2)
	}
	h.slots[SlotDesignPlan] = string(planJSON)
	h.slots[SlotUserPreferences] = string(prefsJSON)
	return nil
}

// Retrieve decodes both slots. It returns ErrNoData if either is missing.
func (h *Handoff) Retrieve() (*Result, error) {
	h.mu.RLock()
	planJSON, hasPlan := h.slots[SlotDesignPlan]
	prefsJSON, hasPrefs := h.slots[SlotUserPreferences]
	h.mu.RUnlock()

	if !hasPlan || !hasPrefs {
		return nil, ErrNoData
	}

	var result Result
	if err := json.Unmarshal([]byte(planJSON), &result.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode %s slot: %w", SlotDesignPlan, err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &result.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode %s slot: %w", SlotUserPreferences, err)
	}
	return &result, nil
}

// Get returns the raw serialized value of a slot.
func (h *Handoff) Get(key string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.slots[key]
	return v, ok
}

// Clear empties both slots.
func (h *Handoff) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.slots, SlotDesignPlan)
	delete(h.slots, SlotUserPreferences)
}
