package types

import (
	"fmt"
	"time"
)

// LatLng is a geographic coordinate pair. Latitude and longitude are treated
// as planar for centroid and area math; no projection is applied.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the axis-aligned bounding box of a set of coordinates.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// DataField describes a single measurable field offered by a data source.
// Fields are immutable and defined per source at startup.
type DataField struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// ThresholdRule maps a comparison against a numeric threshold to a display
// color. Rules belonging to one data source form an ordered sequence; the
// first satisfied rule in sequence order determines the color.
type ThresholdRule struct {
	ID       string       `json:"id"`
	Color    string       `json:"color"`
	Operator RuleOperator `json:"operator"`
	Value    float64      `json:"value"`
	Label    string       `json:"label"`
}

// DataSource is a named provider of measurable fields plus the threshold
// rules used to color regions based on its values. Sources are statically
// configured at startup and mutated in place (toggle, field reselection,
// rule edits); they are never deleted at runtime.
type DataSource struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Enabled        bool            `json:"enabled"`
	Required       bool            `json:"required"`
	BaseColor      string          `json:"base_color"`
	SelectedField  string          `json:"selected_field"`
	Fields         []DataField     `json:"fields"`
	ThresholdRules []ThresholdRule `json:"threshold_rules"`
}

// Field returns the field descriptor for the given field ID, or false if the
// source does not offer it.
func (ds *DataSource) Field(fieldID string) (DataField, bool) {
	for _, f := range ds.Fields {
		if f.ID == fieldID {
			return f, true
		}
	}
	return DataField{}, false
}

// SelectedFieldInfo resolves the descriptor for the currently selected field.
// A validated DataSource always resolves; the fallback covers sources built
// without going through Validate.
func (ds *DataSource) SelectedFieldInfo() DataField {
	if f, ok := ds.Field(ds.SelectedField); ok {
		return f
	}
	return DataField{ID: ds.SelectedField, Name: ds.SelectedField}
}

// TimeWindow is the user-selected evaluation window. It is a value type:
// replaced wholesale, never mutated in place. Downstream recomputation is
// keyed off equality of (Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SingleHour builds the window for one timeline handle: [hour, hour+1).
func SingleHour(hour time.Time) TimeWindow {
	h := hour.Truncate(time.Hour)
	return TimeWindow{Start: h, End: h.Add(time.Hour)}
}

// IsRange reports whether the window spans more than one hour, which is the
// boundary between single-hour display and averaged display.
func (w TimeWindow) IsRange() bool {
	return w.End.Sub(w.Start) > time.Hour
}

// Equal reports whether two windows cover the identical instant pair.
// The registry ignores window notifications that compare Equal to the
// already-applied window.
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// Shape is the contract payload a drawing collaborator reports when the user
// completes a polygon on the map: the ordered vertices plus derived geometry.
type Shape struct {
	Coordinates []LatLng `json:"coordinates"`
	Points      int      `json:"points"`
	Area        float64  `json:"area"`
	Centroid    LatLng   `json:"centroid"`
}

// RenderHandle identifies a visual layer owned by the external map
// collaborator. The core never interprets its internals; it only asks the
// renderer to style or remove it.
type RenderHandle string

// Style is the visual treatment the core requests for a render handle.
type Style struct {
	Color       string  `json:"color"`
	FillOpacity float64 `json:"fill_opacity"`
	Weight      int     `json:"weight"`
}

// Polygon is a user-drawn closed region bound to a data source by name.
// The source name is a copy taken at creation time, not a live reference:
// disabling the source later does not delete the polygon.
type Polygon struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DataSource string       `json:"data_source"`
	Handle     RenderHandle `json:"handle"`

	Points      int      `json:"points"`
	Area        float64  `json:"area"`
	Coordinates []LatLng `json:"coordinates"`
	Centroid    LatLng   `json:"centroid"`

	CurrentValue *float64           `json:"current_value"`
	CurrentColor string             `json:"current_color"`
	LastResult   *PolygonDataResult `json:"last_result"`

	CreatedAt time.Time `json:"created_at"`
}

// PolygonDataResult is the immutable outcome of one pipeline evaluation for
// one polygon. Produced fresh on every run, never mutated, only replaced.
type PolygonDataResult struct {
	PolygonID  string       `json:"polygon_id"`
	Value      *float64     `json:"value"`
	Color      string       `json:"color"`
	Status     ResultStatus `json:"status"`
	FieldName  string       `json:"field_name"`
	Unit       string       `json:"unit"`
	Timestamp  string       `json:"timestamp"`
	IsAverage  bool         `json:"is_average"`
	DataPoints int          `json:"data_points"`
}

// Description renders a human-readable summary of the evaluation, for list
// views and logs.
func (r PolygonDataResult) Description() string {
	if r.Value == nil {
		return "No data available for this time period"
	}
	timeText := "for selected hour"
	if r.IsAverage {
		timeText = fmt.Sprintf("averaged over %d hours", r.DataPoints)
	}
	return fmt.Sprintf("%s: %.2f %s (%s)", r.FieldName, *r.Value, r.Unit, timeText)
}

// AvailableFields returns the deduplicated field descriptors across all
// enabled sources, in source order.
func AvailableFields(sources []DataSource) []DataField {
	seen := make(map[string]struct{})
	var fields []DataField
	for _, ds := range sources {
		if !ds.Enabled {
			continue
		}
		for _, f := range ds.Fields {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			seen[f.ID] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields
}

// CanProcessField reports whether the source offers the given field.
func CanProcessField(ds DataSource, fieldID string) bool {
	_, ok := ds.Field(fieldID)
	return ok
}
