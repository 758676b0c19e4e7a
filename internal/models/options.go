package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownOption is returned when a value is not part of a fixed catalog.
var ErrUnknownOption = errors.New("unknown option")

// PersonalityTypes are the selectable style personalities.
var PersonalityTypes = []string{
	"Calm & Serene",
	"Energetic & Vibrant",
	"Artistic & Creative",
	"Minimalist & Clean",
	"Cozy & Warm",
	"Modern & Sleek",
	"Rustic & Natural",
	"Luxurious & Elegant",
}

// RoomTypes are the selectable room kinds.
var RoomTypes = []string{
	"Bedroom",
	"Living Room",
	"Study/Office",
	"Kitchen",
	"Dining Room",
	"Bathroom",
	"Other",
}

// ColorOption is one entry of the favorite color palette.
type ColorOption struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Hex   string `json:"hex" yaml:"hex"`
}

// ColorOptions is the fixed favorite color palette.
var ColorOptions = []ColorOption{
	{Name: "Warm White", Value: "warm-white", Hex: "#FFF8F0"},
	{Name: "Cool Blue", Value: "cool-blue", Hex: "#E0F2FE"},
	{Name: "Sage Green", Value: "sage-green", Hex: "#F0F9F0"},
	{Name: "Soft Pink", Value: "soft-pink", Hex: "#FDF2F8"},
	{Name: "Lavender", Value: "lavender", Hex: "#F5F3FF"},
	{Name: "Peach", Value: "peach", Hex: "#FEF2E2"},
	{Name: "Mint", Value: "mint", Hex: "#ECFDF5"},
	{Name: "Cream", Value: "cream", Hex: "#FFFBEB"},
	{Name: "Light Gray", Value: "light-gray", Hex: "#F9FAFB"},
	{Name: "Beige", Value: "beige", Hex: "#FAF7F0"},
}

// BudgetRange is one budget tier. The wizard stores Max as the ceiling.
type BudgetRange struct {
	Min   int    `json:"min" yaml:"min"`
	Max   int    `json:"max" yaml:"max"`
	Label string `json:"label" yaml:"label"`
}

// BudgetRanges are the six budget tiers.
var BudgetRanges = []BudgetRange{
	{Min: 500, Max: 1000, Label: "$500 - $1,000"},
	{Min: 1000, Max: 2500, Label: "$1,000 - $2,500"},
	{Min: 2500, Max: 5000, Label: "$2,500 - $5,000"},
	{Min: 5000, Max: 10000, Label: "$5,000 - $10,000"},
	{Min: 10000, Max: 25000, Label: "$10,000 - $25,000"},
	{Min: 25000, Max: 50000, Label: "$25,000+"},
}

// Options bundles every catalog, as served to clients.
type Options struct {
	PersonalityTypes []string      `json:"personalityTypes" yaml:"personality_types"`
	RoomTypes        []string      `json:"roomTypes" yaml:"room_types"`
	Colors           []ColorOption `json:"colors" yaml:"colors"`
	BudgetRanges     []BudgetRange `json:"budgetRanges" yaml:"budget_ranges"`
	Walls            []WallOption  `json:"walls" yaml:"walls"`
}

// WallOption describes a wall slot for clients.
type WallOption struct {
	Wall  WallSlot `json:"wall" yaml:"wall"`
	Label string   `json:"label" yaml:"label"`
}

// AllOptions returns every catalog.
func AllOptions() Options {
	walls := make([]WallOption, 0, len(WallSlots))
	for _, w := range WallSlots {
		walls = append(walls, WallOption{Wall: w, Label: w.Label()})
	}
	return Options{
		PersonalityTypes: PersonalityTypes,
		RoomTypes:        RoomTypes,
		Colors:           ColorOptions,
		BudgetRanges:     BudgetRanges,
		Walls:            walls,
	}
}

// ParseWallSlot validates a wall slot identifier.
func ParseWallSlot(s string) (WallSlot, error) {
	w := WallSlot(strings.TrimSpace(s))
	if w.Index() < 0 {
		return "", fmt.Errorf("%w: wall %q", ErrUnknownOption, s)
	}
	return w, nil
}

// ParsePersonalityType matches s against PersonalityTypes, ignoring case.
func ParsePersonalityType(s string) (string, error) {
	return matchOption("personality type", s, PersonalityTypes)
}

// ParseRoomType matches s against RoomTypes, ignoring case.
func ParseRoomType(s string) (string, error) {
	return matchOption("room type", s, RoomTypes)
}

// ParseColor matches s against the palette values or display names.
func ParseColor(s string) (string, error) {
	values := make([]string, 0, len(ColorOptions))
	for _, c := range ColorOptions {
		if strings.EqualFold(c.Name, strings.TrimSpace(s)) {
			return c.Value, nil
		}
		values = append(values, c.Value)
	}
	return matchOption("color", s, values)
}

// LookupColor returns the palette entry for a color value.
func LookupColor(value string) (ColorOption, bool) {
	for _, c := range ColorOptions {
		if c.Value == value {
			return c, true
		}
	}
	return ColorOption{}, false
}

// ParseBudget validates a budget tier ceiling.
func ParseBudget(max int) (int, error) {
	if _, ok := LookupBudget(max); ok {
		return max, nil
	}
	return 0, fmt.Errorf("%w: budget range %d", ErrUnknownOption, max)
}

// LookupBudget returns the tier whose ceiling is max.
func LookupBudget(max int) (BudgetRange, bool) {
	for _, b := range BudgetRanges {
		if b.Max == max {
			return b, true
		}
	}
	return BudgetRange{}, false
}

func matchOption(kind, s string, options []string) (string, error) {
	want := strings.TrimSpace(s)
	for _, opt := range options {
		if strings.EqualFold(opt, want) {
			return opt, nil
		}
	}
	if suggestion := Suggest(want, options); suggestion != "" {
		return "", fmt.Errorf("%w: %s %q (did you mean %q?)", ErrUnknownOption, kind, s, suggestion)
	}
	return "", fmt.Errorf("%w: %s %q", ErrUnknownOption, kind, s)
}

// Suggest returns the closest option to s by edit distance, or "" when
// nothing is reasonably close.
func Suggest(s string, options []string) string {
	if s == "" {
		return ""
	}
	needle := strings.ToLower(s)
	best, bestDist := "", -1
	for _, opt := range options {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(opt))
		if bestDist < 0 || d < bestDist {
			best, bestDist = opt, d
		}
	}
	// more than a third of the word changed is not a typo
	if bestDist < 0 || bestDist*3 > len(needle)+2 {
		return ""
	}
	return best
}
