// Package pipeline is the core orchestrator that turns a polygon's geometry,
// its data source configuration, and the selected time window into a colored
// result: centroid lookup, hourly series retrieval, windowed reduction, and
// threshold rule resolution.
//
// All four error kinds (invalid geometry, provider unavailability, missing
// source, unexpected computation failure) are absorbed here. A caller only
// ever observes a PolygonDataResult; one polygon's failure never fails or
// blocks a batch.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"shademap/internal/geo"
	"shademap/internal/rules"
	"shademap/internal/series"
	"shademap/internal/types"
)

// DefaultConcurrencyLimit caps the per-batch fan-out. Polygon counts are
// expected in the tens, so this is a guardrail rather than a throughput knob.
const DefaultConcurrencyLimit = 10

// PolygonInput is the per-polygon slice of registry state the batch variant
// needs: identity, geometry, and the source name copied at creation time.
type PolygonInput struct {
	ID          string
	Coordinates []types.LatLng
	SourceName  string
}

// Processor evaluates polygons against the series provider and rule engine.
// It is stateless and reentrant: concurrent calls never interfere.
type Processor struct {
	provider types.SeriesProvider
	clock    types.Clock
	logger   *slog.Logger
	limit    int
}

// Config holds the dependencies for creating a Processor.
type Config struct {
	Provider         types.SeriesProvider
	Clock            types.Clock
	Logger           *slog.Logger
	ConcurrencyLimit int
}

// New creates a Processor with the given configuration.
func New(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	limit := cfg.ConcurrencyLimit
	if limit <= 0 {
		limit = DefaultConcurrencyLimit
	}
	return &Processor{
		provider: cfg.Provider,
		clock:    clock,
		logger:   logger,
		limit:    limit,
	}
}

// ProcessOne evaluates a single polygon against its data source for the
// given window. It never returns an error: any failure in the
// centroid/series/reduce/resolve chain, including a panic, is absorbed into
// an error-state result (red, value nil) so the batch caller can apply it
// like any other outcome.
func (p *Processor) ProcessOne(ctx context.Context, polygonID string, coords []types.LatLng, source types.DataSource, window types.TimeWindow) (result types.PolygonDataResult) {
	fieldInfo := source.SelectedFieldInfo()

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "polygon evaluation panicked",
				"polygon_id", polygonID,
				"panic", r,
			)
			result = p.errorResult(polygonID, fieldInfo)
		}
	}()

	centroid, err := geo.Centroid(coords)
	if err != nil {
		p.logger.ErrorContext(ctx, "centroid computation failed",
			"polygon_id", polygonID,
			"error", err,
		)
		return p.errorResult(polygonID, fieldInfo)
	}

	// The provider works on whole days; the reduction below trims the
	// series back down to the exact window.
	startDate := window.Start.UTC().Truncate(24 * time.Hour)
	endDate := window.End.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	s, err := p.provider.Series(ctx, centroid.Lat, centroid.Lng, startDate, endDate, source.SelectedField)
	if err != nil {
		p.logger.ErrorContext(ctx, "series lookup failed",
			"polygon_id", polygonID,
			"field", source.SelectedField,
			"error", err,
		)
		return p.errorResult(polygonID, fieldInfo)
	}

	isRange := window.IsRange()

	var value *float64
	dataPoints := 0
	status := types.ResultNoData
	if mean, count, ok := series.Reduce(s, window.Start, window.End); ok {
		value = &mean
		if isRange {
			dataPoints = count
		} else {
			// A non-range window reports a conventional single point.
			dataPoints = 1
		}
		status = types.ResultOK
	}

	color := rules.ResolveColor(value, source.ThresholdRules, source.BaseColor)
	if value != nil && color == source.BaseColor {
		status = types.ResultNoMatch
	}

	return types.PolygonDataResult{
		PolygonID:  polygonID,
		Value:      value,
		Color:      color,
		Status:     status,
		FieldName:  fieldInfo.Name,
		Unit:       fieldInfo.Unit,
		Timestamp:  p.clock.Now().Format(time.RFC3339),
		IsAverage:  isRange,
		DataPoints: dataPoints,
	}
}

// ProcessMany evaluates a batch of polygons concurrently. Each polygon's
// stored source name is resolved against the enabled sources; polygons
// without an enabled match get a neutral disabled-state result without the
// provider being consulted. The returned slice preserves input order and is
// complete: every polygon resolves to exactly one result.
func (p *Processor) ProcessMany(ctx context.Context, polygons []PolygonInput, sources []types.DataSource, window types.TimeWindow) []types.PolygonDataResult {
	results := make([]types.PolygonDataResult, len(polygons))

	enabled := make(map[string]types.DataSource)
	for _, ds := range sources {
		if ds.Enabled {
			enabled[ds.Name] = ds
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, poly := range polygons {
		source, ok := enabled[poly.SourceName]
		if !ok {
			results[i] = p.disabledResult(poly.ID)
			continue
		}

		g.Go(func() error {
			// ProcessOne absorbs its own failures; nothing propagates.
			results[i] = p.ProcessOne(gCtx, poly.ID, poly.Coordinates, source, window)
			return nil
		})
	}

	// Every goroutine returns nil; Wait only serves as the join point.
	_ = g.Wait()

	return results
}

// ColorFor resolves the display color for an already-computed value, for
// callers that hold a value and skip fetching.
func (p *Processor) ColorFor(value *float64, source types.DataSource) string {
	return rules.ResolveColor(value, source.ThresholdRules, source.BaseColor)
}

// disabledResult is the neutral outcome for a polygon whose source is off or
// unknown: value unknown, gray, provider never consulted.
func (p *Processor) disabledResult(polygonID string) types.PolygonDataResult {
	return types.PolygonDataResult{
		PolygonID:  polygonID,
		Value:      nil,
		Color:      types.DisabledColor,
		Status:     types.ResultSourceDisabled,
		FieldName:  types.UnknownFieldName,
		Unit:       "",
		Timestamp:  p.clock.Now().Format(time.RFC3339),
		IsAverage:  false,
		DataPoints: 0,
	}
}

// errorResult is the outcome for a computation that failed: value unknown,
// red, distinct from both the disabled gray and a source's base color.
func (p *Processor) errorResult(polygonID string, fieldInfo types.DataField) types.PolygonDataResult {
	return types.PolygonDataResult{
		PolygonID:  polygonID,
		Value:      nil,
		Color:      types.ErrorColor,
		Status:     types.ResultError,
		FieldName:  fieldInfo.Name,
		Unit:       fieldInfo.Unit,
		Timestamp:  p.clock.Now().Format(time.RFC3339),
		IsAverage:  false,
		DataPoints: 0,
	}
}
