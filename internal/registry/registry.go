// Package registry is the orchestrating caller that owns all mutable map
// state: the drawn polygons, the configured data sources, and the selected
// time window. Every mutation goes through the registry's single writer
// lock, and every mutation that affects displayed colors triggers a batch
// recompute through the pipeline.
//
// Batches are guarded by a monotonically increasing generation counter: a
// batch snapshots state and bumps the generation before fanning out, and its
// results are applied atomically only if no newer batch has started in the
// meantime. Superseded batches are discarded whole, so consumers never see a
// partially recolored polygon set or a stale batch overwriting a newer one.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"shademap/internal/geo"
	"shademap/internal/pipeline"
	"shademap/internal/types"
)

// Visual treatment applied to polygon layers when a batch result lands.
const (
	FillOpacity  = 0.2
	StrokeWeight = 2
)

// Registry holds the polygon set, the data source configs, and the time
// window. It is the single writer for all of them.
type Registry struct {
	mu         sync.Mutex
	polygons   map[string]*types.Polygon
	order      []string
	sources    []types.DataSource
	window     types.TimeWindow
	generation uint64

	processor *pipeline.Processor
	renderer  types.LayerRenderer
	metrics   types.MetricPublisher
	clock     types.Clock
	logger    *slog.Logger
}

// Config holds the dependencies for creating a Registry.
type Config struct {
	Processor *pipeline.Processor
	Renderer  types.LayerRenderer   // optional
	Metrics   types.MetricPublisher // optional
	Clock     types.Clock
	Logger    *slog.Logger
	Sources   []types.DataSource // defaults to DefaultSources()
	Window    types.TimeWindow   // defaults to the current hour
}

// New creates a Registry seeded with the configured data sources and window.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	sources := cfg.Sources
	if sources == nil {
		sources = DefaultSources()
	}
	window := cfg.Window
	if window.Start.IsZero() && window.End.IsZero() {
		window = types.SingleHour(clock.Now())
	}
	return &Registry{
		polygons:  make(map[string]*types.Polygon),
		sources:   sources,
		window:    window,
		processor: cfg.Processor,
		renderer:  cfg.Renderer,
		metrics:   cfg.Metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Polygons returns the polygons in creation order. The returned values are
// copies; mutating them does not affect registry state.
func (r *Registry) Polygons() []types.Polygon {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Polygon, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.polygons[id])
	}
	return out
}

// Polygon returns a copy of the polygon with the given ID.
func (r *Registry) Polygon(id string) (types.Polygon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polygons[id]
	if !ok {
		return types.Polygon{}, types.NewAppError(types.ErrCodeNotFoundPolygon,
			fmt.Sprintf("polygon %q not found", id), nil)
	}
	return *p, nil
}

// Sources returns a copy of the data source configurations.
func (r *Registry) Sources() []types.DataSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copySourcesLocked()
}

// Window returns the currently selected time window.
func (r *Registry) Window() types.TimeWindow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.window
}

// AvailableFields returns the deduplicated fields across enabled sources.
func (r *Registry) AvailableFields() []types.DataField {
	r.mu.Lock()
	defer r.mu.Unlock()
	return types.AvailableFields(r.sources)
}

// AddPolygon registers a completed shape under the named data source and
// synchronously computes its first result. The one blocking failure in the
// whole system lives here: a shape cannot be added while zero sources are
// enabled, because it could never be evaluated.
func (r *Registry) AddPolygon(ctx context.Context, shape types.Shape, name, sourceName string, handle types.RenderHandle) (types.Polygon, error) {
	centroid, err := geo.Centroid(shape.Coordinates)
	if err != nil {
		return types.Polygon{}, err
	}

	r.mu.Lock()
	anyEnabled := false
	for _, ds := range r.sources {
		if ds.Enabled {
			anyEnabled = true
			break
		}
	}
	if !anyEnabled {
		r.mu.Unlock()
		return types.Polygon{}, types.NewAppError(types.ErrCodeValidationNoEnabledSources,
			"cannot add a region while no data sources are enabled", nil)
	}
	if _, ok := r.sourceByNameLocked(sourceName); !ok {
		r.mu.Unlock()
		return types.Polygon{}, types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceName), nil)
	}

	if name == "" {
		name = fmt.Sprintf("Region %d", len(r.order)+1)
	}
	p := &types.Polygon{
		ID:          uuid.NewString(),
		Name:        name,
		DataSource:  sourceName,
		Handle:      handle,
		Points:      len(shape.Coordinates),
		Area:        geo.PlanarArea(shape.Coordinates),
		Coordinates: append([]types.LatLng(nil), shape.Coordinates...),
		Centroid:    centroid,
		CreatedAt:   r.clock.Now(),
	}
	if err := p.Validate(); err != nil {
		r.mu.Unlock()
		return types.Polygon{}, err
	}
	r.polygons[p.ID] = p
	r.order = append(r.order, p.ID)
	id := p.ID
	r.mu.Unlock()

	r.recompute(ctx, func(poly *types.Polygon) bool { return poly.ID == id })

	return r.Polygon(id)
}

// RemovePolygon deletes a polygon and releases its render handle so the map
// collaborator drops the layer. No orphaned handles.
func (r *Registry) RemovePolygon(ctx context.Context, id string) error {
	r.mu.Lock()
	p, ok := r.polygons[id]
	if !ok {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundPolygon,
			fmt.Sprintf("polygon %q not found", id), nil)
	}
	handle := p.Handle
	delete(r.polygons, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if r.renderer != nil && handle != "" {
		r.renderer.Remove(handle)
	}
	r.logger.InfoContext(ctx, "polygon removed", "polygon_id", id)
	return nil
}

// SetTimeWindow replaces the evaluation window and triggers a full batch.
// A window equal to the current one is ignored without recomputing.
func (r *Registry) SetTimeWindow(ctx context.Context, w types.TimeWindow) error {
	if err := w.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.window.Equal(w) {
		r.mu.Unlock()
		return nil
	}
	r.window = w
	r.mu.Unlock()

	r.recompute(ctx, nil)
	return nil
}

// ToggleSource enables or disables a data source and triggers a full batch.
// Required sources cannot be toggled.
func (r *Registry) ToggleSource(ctx context.Context, sourceID string, enabled bool) error {
	r.mu.Lock()
	ds := r.sourceByIDLocked(sourceID)
	if ds == nil {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceID), nil)
	}
	if ds.Required {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeValidationSourceRequired,
			fmt.Sprintf("data source %q is required and cannot be toggled", sourceID), nil)
	}
	if ds.Enabled == enabled {
		r.mu.Unlock()
		return nil
	}
	ds.Enabled = enabled
	r.mu.Unlock()

	r.recompute(ctx, nil)
	return nil
}

// SelectField switches which field a source evaluates. The field must be a
// member of the source's field set. Triggers a batch for the polygons that
// reference the source.
func (r *Registry) SelectField(ctx context.Context, sourceID, fieldID string) error {
	r.mu.Lock()
	ds := r.sourceByIDLocked(sourceID)
	if ds == nil {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceID), nil)
	}
	if !types.CanProcessField(*ds, fieldID) {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeValidationUnknownField,
			fmt.Sprintf("field %q is not offered by source %q", fieldID, sourceID), nil)
	}
	if ds.SelectedField == fieldID {
		r.mu.Unlock()
		return nil
	}
	ds.SelectedField = fieldID
	name := ds.Name
	r.mu.Unlock()

	r.recompute(ctx, func(p *types.Polygon) bool { return p.DataSource == name })
	return nil
}

// UpdateRule replaces the rule with the matching ID, or appends the rule if
// the source has no rule with that ID yet. Triggers a batch for the polygons
// that reference the source.
func (r *Registry) UpdateRule(ctx context.Context, sourceID string, rule types.ThresholdRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	ds := r.sourceByIDLocked(sourceID)
	if ds == nil {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceID), nil)
	}
	replaced := false
	for i := range ds.ThresholdRules {
		if ds.ThresholdRules[i].ID == rule.ID {
			ds.ThresholdRules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		if len(ds.ThresholdRules) >= types.MaxRulesPerSrc {
			r.mu.Unlock()
			return types.NewAppError(types.ErrCodeValidationInvalidJSON,
				fmt.Sprintf("source %q already has %d rules", sourceID, types.MaxRulesPerSrc), nil)
		}
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		ds.ThresholdRules = append(ds.ThresholdRules, rule)
	}
	name := ds.Name
	r.mu.Unlock()

	r.recompute(ctx, func(p *types.Polygon) bool { return p.DataSource == name })
	return nil
}

// RemoveRule deletes a rule from a source and triggers a batch for the
// polygons that reference it.
func (r *Registry) RemoveRule(ctx context.Context, sourceID, ruleID string) error {
	r.mu.Lock()
	ds := r.sourceByIDLocked(sourceID)
	if ds == nil {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceID), nil)
	}
	idx := -1
	for i := range ds.ThresholdRules {
		if ds.ThresholdRules[i].ID == ruleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundRule,
			fmt.Sprintf("rule %q not found on source %q", ruleID, sourceID), nil)
	}
	ds.ThresholdRules = append(ds.ThresholdRules[:idx], ds.ThresholdRules[idx+1:]...)
	name := ds.Name
	r.mu.Unlock()

	r.recompute(ctx, func(p *types.Polygon) bool { return p.DataSource == name })
	return nil
}

// ReorderRules rearranges a source's rule sequence to the given ID order.
// The order must be a permutation of the existing rule IDs; sequence position
// is meaningful because the first satisfied rule wins.
func (r *Registry) ReorderRules(ctx context.Context, sourceID string, ruleIDs []string) error {
	r.mu.Lock()
	ds := r.sourceByIDLocked(sourceID)
	if ds == nil {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundSource,
			fmt.Sprintf("data source %q not found", sourceID), nil)
	}
	if len(ruleIDs) != len(ds.ThresholdRules) {
		r.mu.Unlock()
		return types.NewAppError(types.ErrCodeNotFoundRule,
			fmt.Sprintf("order lists %d rules, source has %d", len(ruleIDs), len(ds.ThresholdRules)), nil)
	}
	byID := make(map[string]types.ThresholdRule, len(ds.ThresholdRules))
	for _, rule := range ds.ThresholdRules {
		byID[rule.ID] = rule
	}
	reordered := make([]types.ThresholdRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rule, ok := byID[id]
		if !ok {
			r.mu.Unlock()
			return types.NewAppError(types.ErrCodeNotFoundRule,
				fmt.Sprintf("rule %q not found on source %q", id, sourceID), nil)
		}
		delete(byID, id)
		reordered = append(reordered, rule)
	}
	ds.ThresholdRules = reordered
	name := ds.Name
	r.mu.Unlock()

	r.recompute(ctx, func(p *types.Polygon) bool { return p.DataSource == name })
	return nil
}

// RecomputeAll re-evaluates every polygon against current state.
func (r *Registry) RecomputeAll(ctx context.Context) {
	r.recompute(ctx, nil)
}

// recompute runs one batch: snapshot state under the lock, bump the
// generation, fan out without the lock, then apply atomically only if the
// generation is still current. A nil filter selects every polygon.
func (r *Registry) recompute(ctx context.Context, filter func(*types.Polygon) bool) {
	r.mu.Lock()
	r.generation++
	gen := r.generation

	inputs := make([]pipeline.PolygonInput, 0, len(r.order))
	for _, id := range r.order {
		p := r.polygons[id]
		if filter != nil && !filter(p) {
			continue
		}
		inputs = append(inputs, pipeline.PolygonInput{
			ID:          p.ID,
			Coordinates: append([]types.LatLng(nil), p.Coordinates...),
			SourceName:  p.DataSource,
		})
	}
	sources := r.copySourcesLocked()
	window := r.window
	r.mu.Unlock()

	if len(inputs) == 0 {
		return
	}

	started := r.clock.Now()
	results := r.processor.ProcessMany(ctx, inputs, sources, window)
	duration := r.clock.Now().Sub(started)

	var styles map[types.RenderHandle]types.Style
	r.mu.Lock()
	applied := gen == r.generation
	if applied {
		styles = make(map[types.RenderHandle]types.Style, len(results))
		for i := range results {
			res := results[i]
			p, ok := r.polygons[res.PolygonID]
			if !ok {
				// Deleted while the batch was in flight.
				continue
			}
			p.CurrentValue = res.Value
			p.CurrentColor = res.Color
			p.LastResult = &res
			if p.Handle != "" {
				styles[p.Handle] = types.Style{Color: res.Color, FillOpacity: FillOpacity, Weight: StrokeWeight}
			}
		}
	}
	r.mu.Unlock()

	if !applied {
		r.logger.InfoContext(ctx, "batch superseded, results discarded",
			"generation", gen,
			"polygons", len(results),
		)
	} else if r.renderer != nil {
		for handle, style := range styles {
			r.renderer.ApplyStyle(handle, style)
		}
	}

	if r.metrics != nil {
		if err := r.metrics.PublishBatch(ctx, len(results), duration, applied); err != nil {
			r.logger.WarnContext(ctx, "batch metric publish failed", "error", err)
		}
	}
}

func (r *Registry) sourceByIDLocked(id string) *types.DataSource {
	for i := range r.sources {
		if r.sources[i].ID == id {
			return &r.sources[i]
		}
	}
	return nil
}

func (r *Registry) sourceByNameLocked(name string) (*types.DataSource, bool) {
	for i := range r.sources {
		if r.sources[i].Name == name {
			return &r.sources[i], true
		}
	}
	return nil, false
}

// copySourcesLocked deep-copies the source configs so a batch snapshot stays
// stable while the live configs keep being edited.
func (r *Registry) copySourcesLocked() []types.DataSource {
	out := make([]types.DataSource, len(r.sources))
	for i, ds := range r.sources {
		ds.Fields = append([]types.DataField(nil), ds.Fields...)
		ds.ThresholdRules = append([]types.ThresholdRule(nil), ds.ThresholdRules...)
		out[i] = ds
	}
	return out
}
