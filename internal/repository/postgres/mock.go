package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/pkg/utils"
)

// MockRepository implements domain.MeasurementSource with synthetic data for demo mode
type MockRepository struct {
	streets []string
	start   time.Time
	days    int
}

// NewMockRepository creates a new mock repository covering streets
func NewMockRepository(streets []string) *MockRepository {
	return &MockRepository{
		streets: append([]string(nil), streets...),
		start:   time.Date(2017, time.November, 13, 0, 0, 0, 0, time.UTC),
		days:    14,
	}
}

// Mock periods and their congestion factors
var mockPeriods = []struct {
	name   string
	factor float64
}{
	{"AMPK", 1.25}, // Morning rush
	{"PMPK", 1.35}, // Evening rush
}

var mockDayTypes = []struct {
	name   string
	factor float64
}{
	{"Weekday", 1.0},
	{"Weekend", 0.8},
}

// Load returns deterministic measurements for collection c
func (r *MockRepository) Load(ctx context.Context, c domain.Collection) ([]domain.Measurement, error) {
	if c != domain.CollectionCurrent && c != domain.CollectionBaseline {
		return nil, fmt.Errorf("mock: unknown collection %q", c)
	}

	var out []domain.Measurement
	for i, street := range r.streets {
		// Base free-flow travel time along the pilot corridor, in minutes
		base := 10.0 + float64(i%3)*1.5
		for _, dir := range domain.Directions() {
			for _, p := range mockPeriods {
				for _, dt := range mockDayTypes {
					for d := 0; d < r.days; d++ {
						out = append(out, domain.Measurement{
							Street:     street,
							Direction:  dir,
							Period:     p.name,
							DayType:    dt.name,
							Date:       r.start.AddDate(0, 0, d),
							TravelTime: r.travelTime(c, i, dir, base*p.factor*dt.factor, d),
						})
					}
				}
			}
		}
	}
	return out, nil
}

// travelTime varies the base by day and direction. The second street runs
// faster in the current collection than in the baseline.
func (r *MockRepository) travelTime(c domain.Collection, street int, dir domain.Direction, base float64, day int) float64 {
	phase := float64(street) + float64(day)/2
	if dir == domain.Westbound {
		phase += math.Pi / 3
	}
	tt := base + math.Sin(phase)*0.8
	if c == domain.CollectionBaseline {
		tt += 0.4
		if street == 1 {
			tt += 1.6
		}
	}
	return utils.RoundTo(tt, 2)
}

// Close is a no-op in mock mode
func (r *MockRepository) Close() error {
	return nil
}
