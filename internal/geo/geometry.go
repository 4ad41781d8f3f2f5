// Package geo provides pure planar geometry helpers for user-drawn regions.
// Latitude/longitude are treated as planar coordinates: the area and centroid
// math is an approximation, not a geodesic computation.
package geo

import (
	"math"

	"shademap/internal/types"
)

// MetersPerDegree is the scale constant applied to degree-space areas to
// approximate square meters. One degree is taken as 111000 meters.
const MetersPerDegree = 111000.0

// Centroid returns the arithmetic mean of the polygon's vertices, used as
// its representative point for data lookup.
func Centroid(vertices []types.LatLng) (types.LatLng, error) {
	if len(vertices) == 0 {
		return types.LatLng{}, types.NewAppError(types.ErrCodeValidationInvalidGeometry,
			"cannot compute centroid of empty vertex set", nil)
	}
	var lat, lng float64
	for _, v := range vertices {
		lat += v.Lat
		lng += v.Lng
	}
	n := float64(len(vertices))
	return types.LatLng{Lat: lat / n, Lng: lng / n}, nil
}

// PlanarArea computes the shoelace area of the implicitly closed vertex ring
// (vertex[n] connects back to vertex[0]), scaled by MetersPerDegree² to
// approximate square meters. Degenerate input (<3 vertices) yields 0.
func PlanarArea(vertices []types.LatLng) float64 {
	if len(vertices) < 3 {
		return 0
	}
	var sum float64
	n := len(vertices)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += vertices[i].Lat * vertices[j].Lng
		sum -= vertices[j].Lat * vertices[i].Lng
	}
	return (math.Abs(sum) / 2) * MetersPerDegree * MetersPerDegree
}

// BoundingBox returns the min/max lat/lng bounds of the vertex set.
func BoundingBox(vertices []types.LatLng) (types.Bounds, error) {
	if len(vertices) == 0 {
		return types.Bounds{}, types.NewAppError(types.ErrCodeValidationInvalidGeometry,
			"cannot compute bounding box of empty vertex set", nil)
	}
	b := types.Bounds{North: -90, South: 90, East: -180, West: 180}
	for _, v := range vertices {
		b.North = math.Max(b.North, v.Lat)
		b.South = math.Min(b.South, v.Lat)
		b.East = math.Max(b.East, v.Lng)
		b.West = math.Min(b.West, v.Lng)
	}
	return b, nil
}
