package series

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSimulatorHourlyResolution(t *testing.T) {
	sim := NewSimulator(42)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	s, err := sim.Series(context.Background(), 48.85, 2.35, start, end, FieldTemperature)
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if s.Len() != 48 {
		t.Fatalf("Series() produced %d samples, want 48", s.Len())
	}
	for i, ts := range s.Times {
		want := start.Add(time.Duration(i) * time.Hour)
		if !ts.Equal(want) {
			t.Fatalf("sample %d at %v, want %v", i, ts, want)
		}
	}
}

func TestSimulatorDeterministicForSameSeed(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	a, _ := NewSimulator(7).Series(context.Background(), 10, 20, start, end, FieldTemperature)
	b, _ := NewSimulator(7).Series(context.Background(), 10, 20, start, end, FieldTemperature)

	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("sample %d differs: %v != %v", i, a.Values[i], b.Values[i])
		}
	}
}

func TestSimulatorSeedAndLocationVarySeries(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	ctx := context.Background()

	base, _ := NewSimulator(7).Series(ctx, 10, 20, start, end, FieldTemperature)
	otherSeed, _ := NewSimulator(8).Series(ctx, 10, 20, start, end, FieldTemperature)
	otherLoc, _ := NewSimulator(7).Series(ctx, 11, 20, start, end, FieldTemperature)

	if equalValues(base.Values, otherSeed.Values) {
		t.Error("different base seeds produced identical series")
	}
	if equalValues(base.Values, otherLoc.Values) {
		t.Error("different locations produced identical series")
	}
}

func TestSimulatorFieldBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(240 * time.Hour)
	ctx := context.Background()
	sim := NewSimulator(1)

	tests := []struct {
		field     string
		low, high float64
	}{
		{FieldHumidity, 10, 95},
		{FieldWindSpeed, 0, 30},
		{FieldPressure, 990, 1040},
		{FieldPrecipitation, 0, 5},
		{FieldCongestion, 0, 100},
		{"air_quality_index", 0, 100}, // default generator
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s, err := sim.Series(ctx, 52.5, 13.4, start, end, tt.field)
			if err != nil {
				t.Fatalf("Series() error = %v", err)
			}
			for i, v := range s.Values {
				if v < tt.low || v > tt.high {
					t.Fatalf("sample %d = %v outside [%v, %v]", i, v, tt.low, tt.high)
				}
			}
		})
	}
}

func TestSimulatorRoundsToTwoDecimals(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s, _ := NewSimulator(3).Series(context.Background(), 0, 0, start, start.Add(24*time.Hour), FieldTemperature)
	for i, v := range s.Values {
		if math.Round(v*100)/100 != v {
			t.Fatalf("sample %d = %v not rounded to 2 decimals", i, v)
		}
	}
}

func TestSimulatorEmptyWindow(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSimulator(1).Series(context.Background(), 0, 0, start, start, FieldTemperature)
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("empty window produced %d samples", s.Len())
	}
}

func equalValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
