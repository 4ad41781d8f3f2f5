package types

import (
	"context"
	"time"
)

// Validator is implemented by entities to self-validate.
type Validator interface {
	Validate() error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Series is an hourly-resolution sequence of samples for one field at one
// location. Times and Values are parallel slices of equal length.
type Series struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Field     string      `json:"field"`
	Times     []time.Time `json:"times"`
	Values    []float64   `json:"values"`
}

// Len returns the number of samples in the series.
func (s *Series) Len() int { return len(s.Times) }

// SeriesProvider produces an hourly time series of a named field for a
// location and date range. Implementations are stateless and reentrant;
// concurrent calls with different arguments never interfere.
type SeriesProvider interface {
	Series(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) (*Series, error)
}

// LayerRenderer is the capability contract the core uses to talk back to the
// external map collaborator. The core only ever asks it to apply a visual
// style to a render handle or to remove the handle from the map.
type LayerRenderer interface {
	ApplyStyle(handle RenderHandle, style Style)
	Remove(handle RenderHandle)
}

// MetricPublisher emits batch recompute telemetry. Implementations must be
// non-fatal: publish failures are logged by callers, never propagated.
type MetricPublisher interface {
	PublishBatch(ctx context.Context, polygons int, duration time.Duration, applied bool) error
}
