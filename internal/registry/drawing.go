package registry

import (
	"sync"

	"shademap/internal/geo"
	"shademap/internal/types"
)

// DrawingSession tracks one in-progress polygon capture. It is an explicit
// object handed to the orchestrator rather than ambient map-widget state, so
// there is exactly one place that knows whether a drawing is active and which
// provisional layer belongs to it.
type DrawingSession struct {
	mu       sync.Mutex
	active   bool
	vertices []types.LatLng
	layer    types.RenderHandle
}

// NewDrawingSession creates an idle session.
func NewDrawingSession() *DrawingSession {
	return &DrawingSession{}
}

// Start begins a new capture. Only one capture can be active at a time.
func (d *DrawingSession) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return types.NewAppError(types.ErrCodeConflictDrawingActive,
			"a drawing is already in progress", nil)
	}
	d.active = true
	d.vertices = nil
	d.layer = ""
	return nil
}

// AddVertex appends a vertex to the active capture.
func (d *DrawingSession) AddVertex(p types.LatLng) error {
	if err := types.ValidateLatLng(p); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return types.NewAppError(types.ErrCodeConflictDrawingActive,
			"no drawing in progress", nil)
	}
	d.vertices = append(d.vertices, p)
	return nil
}

// VertexCount reports how many vertices the active capture holds.
func (d *DrawingSession) VertexCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.vertices)
}

// Active reports whether a capture is in progress.
func (d *DrawingSession) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// FinishIfReady completes the capture when it has enough vertices to close a
// polygon. With fewer than three vertices it reports false and the capture
// stays active so the user can keep adding points. On success the session
// resets to idle and returns the completed shape, with derived count, area,
// and centroid, plus the provisional render handle the caller should hand to
// the registry when the shape becomes a polygon.
func (d *DrawingSession) FinishIfReady() (types.Shape, types.RenderHandle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active || len(d.vertices) < types.MinVertices {
		return types.Shape{}, "", false
	}

	coords := append([]types.LatLng(nil), d.vertices...)
	centroid, err := geo.Centroid(coords)
	if err != nil {
		return types.Shape{}, "", false
	}
	shape := types.Shape{
		Coordinates: coords,
		Points:      len(coords),
		Area:        geo.PlanarArea(coords),
		Centroid:    centroid,
	}

	layer := d.layer
	d.active = false
	d.vertices = nil
	d.layer = ""
	return shape, layer, true
}

// Cancel abandons the capture and resets the session to idle. The returned
// handle, if non-empty, is the provisional layer the caller must remove from
// the map.
func (d *DrawingSession) Cancel() types.RenderHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	layer := d.layer
	d.active = false
	d.vertices = nil
	d.layer = ""
	return layer
}

// RegisterExternalLayer records the provisional render handle the map
// collaborator created for the in-progress capture.
func (d *DrawingSession) RegisterExternalLayer(handle types.RenderHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layer = handle
}

// UnregisterLayer clears the provisional handle without finishing or
// canceling the capture.
func (d *DrawingSession) UnregisterLayer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layer = ""
}

// Layer returns the provisional render handle, if one is registered.
func (d *DrawingSession) Layer() types.RenderHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layer
}
