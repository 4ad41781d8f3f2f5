package series

import (
	"math"
	"time"

	"shademap/internal/types"
)

// Reduce collapses a series to a single scalar for the window
// [windowStart, windowEnd], inclusive at both ends. Samples that are NaN are
// skipped. It returns the arithmetic mean of the qualifying samples, their
// count, and ok=false when no sample qualifies.
//
// Single-hour and multi-hour windows use this same reduction; the only
// difference is how many samples satisfy the predicate.
func Reduce(s *types.Series, windowStart, windowEnd time.Time) (float64, int, bool) {
	if s == nil {
		return 0, 0, false
	}

	var sum float64
	count := 0
	for i, ts := range s.Times {
		if ts.Before(windowStart) || ts.After(windowEnd) {
			continue
		}
		v := s.Values[i]
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}

	if count == 0 {
		return 0, 0, false
	}
	return sum / float64(count), count, true
}
