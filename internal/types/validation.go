package types

import "fmt"

// Validation constraint constants.
const (
	MinLat         = -90.0
	MaxLat         = 90.0
	MinLng         = -180.0
	MaxLng         = 180.0
	MinVertices    = 3
	MaxNameLength  = 200
	MaxRulesPerSrc = 20
)

// ValidateLatLng checks that a coordinate pair is within valid bounds.
func ValidateLatLng(p LatLng) error {
	if p.Lat < MinLat || p.Lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f outside [%.0f, %.0f]", p.Lat, MinLat, MaxLat), nil)
	}
	if p.Lng < MinLng || p.Lng > MaxLng {
		return NewAppError(ErrCodeValidationInvalidLng,
			fmt.Sprintf("longitude %.4f outside [%.0f, %.0f]", p.Lng, MinLng, MaxLng), nil)
	}
	return nil
}

// Validate implements the Validator interface for TimeWindow.
// Start must not be after End.
func (w TimeWindow) Validate() error {
	if w.Start.After(w.End) {
		return NewAppError(ErrCodeValidationTimeWindow, "window start must not be after end", nil)
	}
	return nil
}

// Validate implements the Validator interface for ThresholdRule.
func (r ThresholdRule) Validate() error {
	if !ValidOperator(r.Operator) {
		return NewAppError(ErrCodeValidationInvalidOperator,
			fmt.Sprintf("unknown operator %q", r.Operator), nil)
	}
	if r.Color == "" {
		return NewAppError(ErrCodeValidationInvalidColor, "rule color must not be empty", nil)
	}
	return nil
}

// Validate implements the Validator interface for DataSource. It fails fast
// at construction time when the selected field is absent from the field set,
// so the pipeline can index fields by string ID without re-checking.
func (ds *DataSource) Validate() error {
	if ds.ID == "" || ds.Name == "" {
		return NewAppError(ErrCodeValidationMissingField, "data source id and name are required", nil)
	}
	if len(ds.Fields) == 0 {
		return NewAppError(ErrCodeValidationMissingField,
			fmt.Sprintf("data source %q has no fields", ds.ID), nil)
	}
	if _, ok := ds.Field(ds.SelectedField); !ok {
		return NewAppError(ErrCodeValidationUnknownField,
			fmt.Sprintf("selected field %q is not offered by source %q", ds.SelectedField, ds.ID), nil)
	}
	if len(ds.ThresholdRules) > MaxRulesPerSrc {
		return NewAppError(ErrCodeValidationInvalidJSON,
			fmt.Sprintf("source %q exceeds %d rules", ds.ID, MaxRulesPerSrc), nil)
	}
	for _, r := range ds.ThresholdRules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate implements the Validator interface for Polygon. A polygon needs
// at least three vertices and a vertex count that matches its coordinates.
func (p *Polygon) Validate() error {
	if len(p.Coordinates) < MinVertices {
		return NewAppError(ErrCodeValidationInvalidGeometry,
			fmt.Sprintf("polygon needs at least %d vertices, got %d", MinVertices, len(p.Coordinates)), nil)
	}
	if p.Points != len(p.Coordinates) {
		return NewAppError(ErrCodeValidationInvalidGeometry,
			fmt.Sprintf("vertex count %d does not match coordinates length %d", p.Points, len(p.Coordinates)), nil)
	}
	for _, c := range p.Coordinates {
		if err := ValidateLatLng(c); err != nil {
			return err
		}
	}
	return nil
}
