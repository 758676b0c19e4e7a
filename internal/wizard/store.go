package wizard

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/roomwise/roomwise/internal/models"
)

// Preference field identifiers. They double as validation error keys.
const (
	FieldFullName        = "fullName"
	FieldPersonalityType = "personalityType"
	FieldRoomType        = "roomType"
	FieldBudgetRange     = "budgetRange"
	FieldFavoriteColors  = "favoriteColors"
)

// PreviewPrefix is where previews of uploaded files are served from.
const PreviewPrefix = "/uploads/"

// Store holds the four wall images and the preferences of one wizard run.
type Store struct {
	mu          sync.RWMutex
	images      [4]models.RoomImage
	preferences models.PersonalPreferences
}

// NewStore returns a Store with four empty wall slots and empty preferences.
func NewStore() *Store {
	s := &Store{}
	for i, wall := range models.WallSlots {
		s.images[i] = models.RoomImage{ID: strconv.Itoa(i + 1), Wall: wall}
	}
	s.preferences.FavoriteColors = []string{}
	return s
}

// SetImage attaches file to a wall slot, or clears the slot when file is nil.
func (s *Store) SetImage(wall models.WallSlot, file *models.ImageFile) error {
	i := wall.Index()
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownWall, wall)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if file == nil {
		s.images[i].File = nil
		s.images[i].Preview = ""
		return nil
	}
	f := *file
	s.images[i].File = &f
	s.images[i].Preview = PreviewPrefix + f.Filename
	return nil
}

// Image returns the current state of one wall slot.
func (s *Store) Image(wall models.WallSlot) (models.RoomImage, bool) {
	i := wall.Index()
	if i < 0 {
		return models.RoomImage{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneImage(s.images[i]), true
}

// SetPreference replaces one preference field. Values are checked against
// the option catalogs; an empty or zero value clears the field.
func (s *Store) SetPreference(field string, value any) error {
	apply, err := parsePreference(field, value)
	if err != nil {
		return err
	}
	s.update(apply)
	return nil
}

// SetPreferences replaces several fields at once. Either every value is
// accepted and applied, or nothing changes and the rejected fields are
// returned with their messages.
func (s *Store) SetPreferences(values map[string]any) ValidationErrors {
	rejected := ValidationErrors{}
	appliers := make([]func(p *models.PersonalPreferences), 0, len(values))
	for field, value := range values {
		apply, err := parsePreference(field, value)
		if err != nil {
			rejected[field] = err.Error()
			continue
		}
		appliers = append(appliers, apply)
	}
	if !rejected.Empty() {
		return rejected
	}

	s.update(func(p *models.PersonalPreferences) {
		for _, apply := range appliers {
			apply(p)
		}
	})
	return rejected
}

// parsePreference checks value for field and returns the change to apply.
func parsePreference(field string, value any) (func(p *models.PersonalPreferences), error) {
	switch field {
	case FieldFullName:
		name, ok := value.(string)
		if !ok {
			return nil, fieldTypeError(field, value)
		}
		return func(p *models.PersonalPreferences) { p.FullName = name }, nil
	case FieldPersonalityType:
		v, err := parseEnum(field, value, models.ParsePersonalityType)
		if err != nil {
			return nil, err
		}
		return func(p *models.PersonalPreferences) { p.PersonalityType = v }, nil
	case FieldRoomType:
		v, err := parseEnum(field, value, models.ParseRoomType)
		if err != nil {
			return nil, err
		}
		return func(p *models.PersonalPreferences) { p.RoomType = v }, nil
	case FieldBudgetRange:
		budget, err := parseBudget(value)
		if err != nil {
			return nil, err
		}
		return func(p *models.PersonalPreferences) { p.BudgetRange = budget }, nil
	case FieldFavoriteColors:
		colors, ok := value.([]string)
		if !ok {
			return nil, fieldTypeError(field, value)
		}
		normalized := make([]string, 0, len(colors))
		for _, c := range colors {
			v, err := models.ParseColor(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			if !slices.Contains(normalized, v) {
				normalized = append(normalized, v)
			}
		}
		return func(p *models.PersonalPreferences) { p.FavoriteColors = normalized }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// ToggleFavoriteColor adds the color when absent and removes it when present.
func (s *Store) ToggleFavoriteColor(color string) error {
	v, err := models.ParseColor(color)
	if err != nil {
		return fmt.Errorf("%s: %w", FieldFavoriteColors, err)
	}
	s.update(func(p *models.PersonalPreferences) {
		if i := slices.Index(p.FavoriteColors, v); i >= 0 {
			p.FavoriteColors = slices.Delete(p.FavoriteColors, i, i+1)
			return
		}
		p.FavoriteColors = append(p.FavoriteColors, v)
	})
	return nil
}

// Preferences returns a copy of the preferences.
func (s *Store) Preferences() models.PersonalPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences.Clone()
}

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() models.DesignRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var req models.DesignRequest
	for i, img := range s.images {
		req.Images[i] = cloneImage(img)
	}
	req.Preferences = s.preferences.Clone()
	return req
}

func (s *Store) update(fn func(p *models.PersonalPreferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.preferences)
}

func cloneImage(img models.RoomImage) models.RoomImage {
	if img.File != nil {
		f := *img.File
		img.File = &f
	}
	return img
}

func parseEnum(field string, value any, parse func(string) (string, error)) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fieldTypeError(field, value)
	}
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	v, err := parse(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func parseBudget(value any) (int, error) {
	var budget int
	switch v := value.(type) {
	case int:
		budget = v
	case int64:
		budget = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidValue, FieldBudgetRange, v)
		}
		budget = int(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", FieldBudgetRange, err)
		}
		budget = n
	default:
		return 0, fieldTypeError(FieldBudgetRange, value)
	}
	if budget == 0 {
		return 0, nil
	}
	if _, err := models.ParseBudget(budget); err != nil {
		return 0, fmt.Errorf("%s: %w", FieldBudgetRange, err)
	}
	return budget, nil
}

func fieldTypeError(field string, value any) error {
	return fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, field, value)
}
