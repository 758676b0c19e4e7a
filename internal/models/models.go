package models

// WallSlot identifies one of the four fixed walls a room photo belongs to.
type WallSlot string

const (
	WallFront WallSlot = "wall-1"
	WallRight WallSlot = "wall-2"
	WallBack  WallSlot = "wall-3"
	WallLeft  WallSlot = "wall-4"
)

// WallSlots lists the slots in their fixed order.
var WallSlots = [4]WallSlot{WallFront, WallRight, WallBack, WallLeft}

// Label returns the human readable wall name.
func (w WallSlot) Label() string {
	switch w {
	case WallFront:
		return "Front Wall"
	case WallRight:
		return "Right Wall"
	case WallBack:
		return "Back Wall"
	case WallLeft:
		return "Left Wall"
	default:
		return string(w)
	}
}

// Index returns the position of the slot in WallSlots, or -1.
func (w WallSlot) Index() int {
	for i, slot := range WallSlots {
		if slot == w {
			return i
		}
	}
	return -1
}

// ImageFile is the binary handle of an uploaded wall photo. The bytes live on
// disk at Path.
type ImageFile struct {
	Filename    string `json:"filename" yaml:"filename"`
	Path        string `json:"path" yaml:"path"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Size        int64  `json:"size" yaml:"size"`
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	MD5         string `json:"md5" yaml:"md5"`
}

// RoomImage represents one wall slot of the room being designed
type RoomImage struct {
	ID      string     `json:"id"`
	Wall    WallSlot   `json:"wall"`
	File    *ImageFile `json:"file,omitempty"`
	Preview string     `json:"preview,omitempty"`
}

// Filled reports whether a file is attached to the slot.
func (r RoomImage) Filled() bool {
	return r.File != nil
}

// PersonalPreferences holds the style answers collected by the wizard.
type PersonalPreferences struct {
	FullName        string   `json:"fullName" yaml:"full_name"`
	PersonalityType string   `json:"personalityType" yaml:"personality_type"`
	FavoriteColors  []string `json:"favoriteColors" yaml:"favorite_colors"`
	BudgetRange     int      `json:"budgetRange" yaml:"budget_range"`
	RoomType        string   `json:"roomType" yaml:"room_type"`
}

// Clone returns a copy that shares no slices with p.
func (p PersonalPreferences) Clone() PersonalPreferences {
	out := p
	if p.FavoriteColors != nil {
		out.FavoriteColors = append([]string(nil), p.FavoriteColors...)
	}
	return out
}

// WallColor is a recommended paint color.
type WallColor struct {
	Color string `json:"color" yaml:"color"`
	Name  string `json:"name" yaml:"name"`
	Hex   string `json:"hex" yaml:"hex"`
}

// FurnitureItem is a recommended piece of furniture or decor.
type FurnitureItem struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Cost        float64 `json:"cost" yaml:"cost"`
	Description string  `json:"description" yaml:"description"`
}

// CostBreakdown splits the total cost of a plan.
type CostBreakdown struct {
	Furniture   float64 `json:"furniture" yaml:"furniture"`
	Paint       float64 `json:"paint" yaml:"paint"`
	Accessories float64 `json:"accessories" yaml:"accessories"`
}

// Sum returns furniture + paint + accessories.
func (c CostBreakdown) Sum() float64 {
	return c.Furniture + c.Paint + c.Accessories
}

// DesignPlan is the generated interior design recommendation.
type DesignPlan struct {
	WallColors           []WallColor     `json:"wallColors" yaml:"wall_colors"`
	Furniture            []FurnitureItem `json:"furniture" yaml:"furniture"`
	LayoutRecommendation string          `json:"layoutRecommendation" yaml:"layout_recommendation"`
	TotalCost            float64         `json:"totalCost" yaml:"total_cost"`
	CostBreakdown        CostBreakdown   `json:"costBreakdown" yaml:"cost_breakdown"`
}

// DesignRequest is the immutable snapshot sent to the plan generator.
type DesignRequest struct {
	Images      [4]RoomImage        `json:"images"`
	Preferences PersonalPreferences `json:"preferences"`
}

// WizardStep is one screen of the wizard.
type WizardStep string

const (
	StepUpload      WizardStep = "upload"
	StepPreferences WizardStep = "preferences"
	StepReview      WizardStep = "review"
)

// WizardSteps lists the steps in their fixed order.
var WizardSteps = []WizardStep{StepUpload, StepPreferences, StepReview}
