package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roomwise/roomwise/internal/models"
)

// ValidationErrors maps a field identifier (wall slot or preference field) to
// a message for the user. An empty map means the step is valid.
type ValidationErrors map[string]string

// Error lists every message, sorted by field so output is stable.
func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Empty reports whether there are no errors.
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

func (v ValidationErrors) clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// Validate evaluates every rule for step against req and returns all
// resulting errors together.
func Validate(step models.WizardStep, req models.DesignRequest) ValidationErrors {
	errs := ValidationErrors{}

	switch step {
	case models.StepUpload:
		for _, img := range req.Images {
			if !img.Filled() {
				errs[string(img.Wall)] = "Please upload an image for this wall"
			}
		}
	case models.StepPreferences:
		p := req.Preferences
		if strings.TrimSpace(p.FullName) == "" {
			errs[FieldFullName] = "Full name is required"
		}
		if p.RoomType == "" {
			errs[FieldRoomType] = "Room type is required"
		}
		if p.PersonalityType == "" {
			errs[FieldPersonalityType] = "Personality type is required"
		}
		if p.BudgetRange == 0 {
			errs[FieldBudgetRange] = "Budget range is required"
		}
		if len(p.FavoriteColors) == 0 {
			errs[FieldFavoriteColors] = "Please select at least one favorite color"
		}
	case models.StepReview:
		// nothing new to check; submit still runs this for parity
	}

	return errs
}
