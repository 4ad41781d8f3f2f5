package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"shademap/internal/types"
)

// providerFunc adapts a function to types.SeriesProvider for tests.
type providerFunc func(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) (*types.Series, error)

func (f providerFunc) Series(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) (*types.Series, error) {
	return f(ctx, lat, lng, startDate, endDate, field)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testSource() types.DataSource {
	return types.DataSource{
		ID:            "weather",
		Name:          "Open-Meteo Weather",
		Enabled:       true,
		Required:      true,
		BaseColor:     "#3388ff",
		SelectedField: "temperature_2m",
		Fields: []types.DataField{
			{ID: "temperature_2m", Name: "Temperature", Unit: "°C"},
		},
		ThresholdRules: []types.ThresholdRule{
			{ID: "r1", Color: "#ff8c00", Operator: types.OpLessThan, Value: 25},
		},
	}
}

func testProcessor(provider types.SeriesProvider) *Processor {
	return New(Config{
		Provider: provider,
		Clock:    fixedClock{t: testDay.Add(20 * time.Hour)},
	})
}

// hourlyProvider returns a provider serving one fixed day of hourly samples
// where the value at hour h is h.
func hourlyProvider() types.SeriesProvider {
	return providerFunc(func(_ context.Context, lat, lng float64, _, _ time.Time, field string) (*types.Series, error) {
		s := &types.Series{Latitude: lat, Longitude: lng, Field: field}
		for h := 0; h < 24; h++ {
			s.Times = append(s.Times, testDay.Add(time.Duration(h)*time.Hour))
			s.Values = append(s.Values, float64(h))
		}
		return s, nil
	})
}

func square(lat, lng float64) []types.LatLng {
	return []types.LatLng{
		{Lat: lat, Lng: lng},
		{Lat: lat + 1, Lng: lng},
		{Lat: lat + 1, Lng: lng + 1},
		{Lat: lat, Lng: lng + 1},
	}
}

func TestProcessOneRangeWindow(t *testing.T) {
	p := testProcessor(hourlyProvider())
	window := types.TimeWindow{Start: testDay.Add(10 * time.Hour), End: testDay.Add(12 * time.Hour)}

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), testSource(), window)

	if res.Status != types.ResultOK {
		t.Fatalf("status = %s, want %s", res.Status, types.ResultOK)
	}
	if res.Value == nil || *res.Value != 11 {
		t.Fatalf("value = %v, want 11", res.Value)
	}
	// 11 < 25, so the first rule matches.
	if res.Color != "#ff8c00" {
		t.Errorf("color = %s, want #ff8c00", res.Color)
	}
	if !res.IsAverage || res.DataPoints != 3 {
		t.Errorf("IsAverage=%v DataPoints=%d, want true/3", res.IsAverage, res.DataPoints)
	}
	if res.FieldName != "Temperature" || res.Unit != "°C" {
		t.Errorf("field = %s %s, want Temperature °C", res.FieldName, res.Unit)
	}
}

func TestProcessOneSingleHourWindow(t *testing.T) {
	p := testProcessor(hourlyProvider())
	window := types.SingleHour(testDay.Add(14 * time.Hour))

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), testSource(), window)

	if res.Status != types.ResultOK {
		t.Fatalf("status = %s, want %s", res.Status, types.ResultOK)
	}
	if res.IsAverage {
		t.Error("single-hour window reported as average")
	}
	if res.DataPoints != 1 {
		t.Errorf("DataPoints = %d, want 1", res.DataPoints)
	}
}

func TestProcessOneNoRuleMatch(t *testing.T) {
	p := testProcessor(hourlyProvider())
	src := testSource()
	src.ThresholdRules = []types.ThresholdRule{
		{ID: "r1", Color: "#ff8c00", Operator: types.OpGreaterThan, Value: 100},
	}
	window := types.TimeWindow{Start: testDay.Add(10 * time.Hour), End: testDay.Add(12 * time.Hour)}

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), src, window)

	if res.Status != types.ResultNoMatch {
		t.Errorf("status = %s, want %s", res.Status, types.ResultNoMatch)
	}
	if res.Color != src.BaseColor {
		t.Errorf("color = %s, want base %s", res.Color, src.BaseColor)
	}
	if res.Value == nil {
		t.Error("value should still be present when no rule matches")
	}
}

func TestProcessOneNoData(t *testing.T) {
	empty := providerFunc(func(_ context.Context, lat, lng float64, _, _ time.Time, field string) (*types.Series, error) {
		return &types.Series{Latitude: lat, Longitude: lng, Field: field}, nil
	})
	p := testProcessor(empty)
	window := types.SingleHour(testDay)

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), testSource(), window)

	if res.Status != types.ResultNoData {
		t.Errorf("status = %s, want %s", res.Status, types.ResultNoData)
	}
	if res.Value != nil {
		t.Errorf("value = %v, want nil", *res.Value)
	}
	if res.Color != testSource().BaseColor {
		t.Errorf("color = %s, want base color", res.Color)
	}
	if res.DataPoints != 0 {
		t.Errorf("DataPoints = %d, want 0", res.DataPoints)
	}
}

func TestProcessOneProviderError(t *testing.T) {
	failing := providerFunc(func(context.Context, float64, float64, time.Time, time.Time, string) (*types.Series, error) {
		return nil, errors.New("upstream down")
	})
	p := testProcessor(failing)

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), testSource(), types.SingleHour(testDay))

	if res.Status != types.ResultError {
		t.Fatalf("status = %s, want %s", res.Status, types.ResultError)
	}
	if res.Color != types.ErrorColor {
		t.Errorf("color = %s, want %s", res.Color, types.ErrorColor)
	}
	if res.Value != nil {
		t.Error("error result must not carry a value")
	}
	if res.FieldName != "Temperature" {
		t.Errorf("field name = %s, want Temperature", res.FieldName)
	}
}

func TestProcessOneInvalidGeometry(t *testing.T) {
	p := testProcessor(hourlyProvider())

	res := p.ProcessOne(context.Background(), "poly-1", nil, testSource(), types.SingleHour(testDay))

	if res.Status != types.ResultError {
		t.Fatalf("status = %s, want %s", res.Status, types.ResultError)
	}
	if res.Color != types.ErrorColor {
		t.Errorf("color = %s, want %s", res.Color, types.ErrorColor)
	}
}

func TestProcessOneRecoversPanic(t *testing.T) {
	panicking := providerFunc(func(context.Context, float64, float64, time.Time, time.Time, string) (*types.Series, error) {
		panic("boom")
	})
	p := testProcessor(panicking)

	res := p.ProcessOne(context.Background(), "poly-1", square(10, 20), testSource(), types.SingleHour(testDay))

	if res.Status != types.ResultError {
		t.Fatalf("status = %s, want %s", res.Status, types.ResultError)
	}
	if res.Color != types.ErrorColor {
		t.Errorf("color = %s, want %s", res.Color, types.ErrorColor)
	}
}

func TestProcessManyPreservesOrderAndIsolatesFailures(t *testing.T) {
	// Polygon "bad" gets a provider error; everyone else succeeds.
	provider := providerFunc(func(_ context.Context, lat, lng float64, _, _ time.Time, field string) (*types.Series, error) {
		if lat > 90 {
			return nil, errors.New("upstream down")
		}
		s := &types.Series{Latitude: lat, Longitude: lng, Field: field}
		for h := 0; h < 24; h++ {
			s.Times = append(s.Times, testDay.Add(time.Duration(h)*time.Hour))
			s.Values = append(s.Values, 20)
		}
		return s, nil
	})
	p := testProcessor(provider)
	src := testSource()

	polygons := []PolygonInput{
		{ID: "a", Coordinates: square(10, 20), SourceName: src.Name},
		{ID: "bad", Coordinates: square(200, 20), SourceName: src.Name},
		{ID: "c", Coordinates: square(30, 40), SourceName: src.Name},
	}

	results := p.ProcessMany(context.Background(), polygons, []types.DataSource{src}, types.SingleHour(testDay))

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"a", "bad", "c"} {
		if results[i].PolygonID != want {
			t.Fatalf("results[%d].PolygonID = %s, want %s", i, results[i].PolygonID, want)
		}
	}
	if results[0].Status != types.ResultOK || results[2].Status != types.ResultOK {
		t.Errorf("healthy polygons: statuses %s/%s, want ok/ok", results[0].Status, results[2].Status)
	}
	if results[1].Status != types.ResultError {
		t.Errorf("failing polygon status = %s, want %s", results[1].Status, types.ResultError)
	}
}

func TestProcessManyDisabledSource(t *testing.T) {
	var calls int
	provider := providerFunc(func(context.Context, float64, float64, time.Time, time.Time, string) (*types.Series, error) {
		calls++
		return &types.Series{}, nil
	})
	p := testProcessor(provider)

	src := testSource()
	src.Enabled = false

	polygons := []PolygonInput{
		{ID: "a", Coordinates: square(10, 20), SourceName: src.Name},
		{ID: "b", Coordinates: square(10, 20), SourceName: "No Such Source"},
	}

	results := p.ProcessMany(context.Background(), polygons, []types.DataSource{src}, types.SingleHour(testDay))

	for _, res := range results {
		if res.Status != types.ResultSourceDisabled {
			t.Errorf("polygon %s: status = %s, want %s", res.PolygonID, res.Status, types.ResultSourceDisabled)
		}
		if res.Color != types.DisabledColor {
			t.Errorf("polygon %s: color = %s, want %s", res.PolygonID, res.Color, types.DisabledColor)
		}
		if res.FieldName != types.UnknownFieldName {
			t.Errorf("polygon %s: field = %s, want %s", res.PolygonID, res.FieldName, types.UnknownFieldName)
		}
		if res.Value != nil {
			t.Errorf("polygon %s: value = %v, want nil", res.PolygonID, *res.Value)
		}
	}
	if calls != 0 {
		t.Errorf("provider consulted %d times for disabled sources, want 0", calls)
	}
}

func TestProcessManyLargeBatchCompletes(t *testing.T) {
	p := testProcessor(hourlyProvider())
	src := testSource()

	var polygons []PolygonInput
	for i := 0; i < 50; i++ {
		polygons = append(polygons, PolygonInput{
			ID:          fmt.Sprintf("poly-%d", i),
			Coordinates: square(float64(i%80), float64(i%170)),
			SourceName:  src.Name,
		})
	}

	results := p.ProcessMany(context.Background(), polygons, []types.DataSource{src}, types.SingleHour(testDay.Add(6*time.Hour)))

	if len(results) != len(polygons) {
		t.Fatalf("got %d results, want %d", len(results), len(polygons))
	}
	for i, res := range results {
		if res.PolygonID != polygons[i].ID {
			t.Fatalf("results[%d] is for %s, want %s", i, res.PolygonID, polygons[i].ID)
		}
		if res.Status != types.ResultOK {
			t.Errorf("polygon %s: status = %s, want ok", res.PolygonID, res.Status)
		}
	}
}

func TestColorFor(t *testing.T) {
	p := testProcessor(hourlyProvider())
	src := testSource()

	v := 10.0
	if got := p.ColorFor(&v, src); got != "#ff8c00" {
		t.Errorf("ColorFor(10) = %s, want #ff8c00", got)
	}
	if got := p.ColorFor(nil, src); got != src.BaseColor {
		t.Errorf("ColorFor(nil) = %s, want base color", got)
	}
}
