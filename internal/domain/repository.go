package domain

import "context"

// MeasurementSource loads one dataset collection at startup.
// The domain defines the interface; repositories implement it.
type MeasurementSource interface {
	// Load returns every measurement of the collection
	Load(ctx context.Context, collection Collection) ([]Measurement, error)

	// Close releases connections held by the source
	Close() error
}

// Renderer receives every recomputed dashboard view
type Renderer interface {
	Render(ctx context.Context, view DashboardView) error
}
