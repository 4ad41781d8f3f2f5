package registry

import (
	"testing"

	"shademap/internal/types"
)

func TestDrawingSessionLifecycle(t *testing.T) {
	d := NewDrawingSession()

	if d.Active() {
		t.Fatal("fresh session reports active")
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("second Start() should conflict")
	} else {
		assertCode(t, err, types.ErrCodeConflictDrawingActive)
	}

	d.RegisterExternalLayer("pending-layer")

	vertices := []types.LatLng{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 0}, {Lat: 2, Lng: 2}, {Lat: 0, Lng: 2}}
	for _, v := range vertices {
		if err := d.AddVertex(v); err != nil {
			t.Fatalf("AddVertex(%v) error = %v", v, err)
		}
	}
	if d.VertexCount() != 4 {
		t.Fatalf("vertex count = %d, want 4", d.VertexCount())
	}

	shape, layer, ok := d.FinishIfReady()
	if !ok {
		t.Fatal("FinishIfReady() = false with 4 vertices")
	}
	if layer != "pending-layer" {
		t.Errorf("layer = %s, want pending-layer", layer)
	}
	if shape.Points != 4 || len(shape.Coordinates) != 4 {
		t.Errorf("shape points = %d, coords = %d, want 4/4", shape.Points, len(shape.Coordinates))
	}
	if shape.Centroid.Lat != 1 || shape.Centroid.Lng != 1 {
		t.Errorf("centroid = %+v, want (1,1)", shape.Centroid)
	}
	if shape.Area <= 0 {
		t.Errorf("area = %v, want > 0", shape.Area)
	}
	if d.Active() {
		t.Error("session still active after finish")
	}
}

func TestDrawingSessionNotReady(t *testing.T) {
	d := NewDrawingSession()
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	d.AddVertex(types.LatLng{Lat: 0, Lng: 0})
	d.AddVertex(types.LatLng{Lat: 1, Lng: 1})

	if _, _, ok := d.FinishIfReady(); ok {
		t.Fatal("FinishIfReady() = true with 2 vertices")
	}
	if !d.Active() {
		t.Error("unfinished session went inactive")
	}

	// A third vertex makes it closeable.
	d.AddVertex(types.LatLng{Lat: 0, Lng: 1})
	if _, _, ok := d.FinishIfReady(); !ok {
		t.Error("FinishIfReady() = false with 3 vertices")
	}
}

func TestDrawingSessionCancel(t *testing.T) {
	d := NewDrawingSession()
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	d.RegisterExternalLayer("tmp-layer")
	d.AddVertex(types.LatLng{Lat: 5, Lng: 5})

	if got := d.Cancel(); got != "tmp-layer" {
		t.Errorf("Cancel() = %s, want tmp-layer", got)
	}
	if d.Active() || d.VertexCount() != 0 {
		t.Error("cancel did not reset the session")
	}

	// Canceling clears state; a new capture starts clean.
	if err := d.Start(); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if d.Layer() != "" {
		t.Errorf("layer = %s after restart, want empty", d.Layer())
	}
}

func TestDrawingSessionVertexValidation(t *testing.T) {
	d := NewDrawingSession()

	if err := d.AddVertex(types.LatLng{Lat: 0, Lng: 0}); err == nil {
		t.Error("AddVertex before Start should fail")
	}

	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	err := d.AddVertex(types.LatLng{Lat: 95, Lng: 0})
	assertCode(t, err, types.ErrCodeValidationInvalidLat)
	err = d.AddVertex(types.LatLng{Lat: 0, Lng: 200})
	assertCode(t, err, types.ErrCodeValidationInvalidLng)
	if d.VertexCount() != 0 {
		t.Errorf("invalid vertices were stored: count = %d", d.VertexCount())
	}

	d.UnregisterLayer()
	if d.Layer() != "" {
		t.Error("UnregisterLayer left a handle")
	}
}
