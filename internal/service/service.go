package service

import (
	"github.com/smartcity/kingpilot/internal/domain"
)

// MeasurementSource is re-exported from domain for convenience
type MeasurementSource = domain.MeasurementSource

// Renderer is re-exported from domain for convenience
type Renderer = domain.Renderer
