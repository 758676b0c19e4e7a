package designing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roomwise/roomwise/internal/models"
)

// DefaultMockDelay is how long the mock generator takes to answer.
const DefaultMockDelay = 3 * time.Second

// Mock returns a fixed demonstration plan after a delay. It needs no
// provider and is the default generator.
type Mock struct {
	Delay time.Duration
}

func NewMock(delay time.Duration) *Mock {
	if delay < 0 {
		delay = 0
	}
	return &Mock{Delay: delay}
}

// RequestPlan waits for the configured delay, or until ctx is done.
func (m *Mock) RequestPlan(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	return MockPlan(req.Preferences), nil
}

// MockPlan builds the demonstration plan for the given preferences.
func MockPlan(prefs models.PersonalPreferences) *models.DesignPlan {
	personality := strings.ToLower(prefs.PersonalityType)
	room := strings.ToLower(prefs.RoomType)

	return &models.DesignPlan{
		WallColors: []models.WallColor{
			{Color: "Soft Sage", Name: "Benjamin Moore Healing Aloe", Hex: "#A8C090"},
			{Color: "Warm White", Name: "Sherwin Williams Pure White", Hex: "#F7F3E9"},
			{Color: "Accent Wall", Name: "Deep Forest Green", Hex: "#2D5016"},
		},
		Furniture: []models.FurnitureItem{
			{ID: "1", Name: "Modern Sectional Sofa", Type: "Seating", Cost: 1200, Description: "Comfortable L-shaped sectional in neutral fabric"},
			{ID: "2", Name: "Coffee Table", Type: "Table", Cost: 350, Description: "Glass-top coffee table with wooden legs"},
			{ID: "3", Name: "Floor Lamp", Type: "Lighting", Cost: 180, Description: "Arc floor lamp with adjustable brightness"},
			{ID: "4", Name: "Area Rug", Type: "Decor", Cost: 280, Description: "8x10 geometric pattern rug in complementary colors"},
			{ID: "5", Name: "Wall Art Set", Type: "Decor", Cost: 150, Description: "Set of 3 framed botanical prints"},
		},
		LayoutRecommendation: fmt.Sprintf("Based on your %s personality and %s space, we recommend placing the sectional sofa facing the main focal point (TV or fireplace) with the coffee table centered in front. "+
			"The floor lamp should be positioned near a reading corner, and the area rug should extend at least 6 inches beyond the front legs of your seating. "+
			"This layout promotes both comfort and conversation while maintaining the %s aesthetic you prefer.", personality, room, personality),
		TotalCost: 2160,
		CostBreakdown: models.CostBreakdown{
			Furniture:   1830,
			Paint:       180,
			Accessories: 150,
		},
	}
}
