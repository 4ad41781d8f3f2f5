package rules

import (
	"math"
	"testing"

	"shademap/internal/types"
)

func fptr(v float64) *float64 { return &v }

func TestResolveColorFirstMatchWins(t *testing.T) {
	// Both rules match value 15; sequence order decides.
	ruleSeq := []types.ThresholdRule{
		{ID: "1", Color: "amber", Operator: types.OpLessThan, Value: 25},
		{ID: "2", Color: "green", Operator: types.OpGreaterThanEq, Value: 10},
	}
	got := ResolveColor(fptr(15), ruleSeq, "gray")
	if got != "amber" {
		t.Errorf("ResolveColor() = %q, want %q (first satisfied rule)", got, "amber")
	}
}

func TestResolveColorNullShortCircuit(t *testing.T) {
	ruleSeq := []types.ThresholdRule{
		{ID: "1", Color: "red", Operator: types.OpGreaterThan, Value: -1e9},
	}
	if got := ResolveColor(nil, ruleSeq, "base"); got != "base" {
		t.Errorf("ResolveColor(nil) = %q, want base color", got)
	}
	if got := ResolveColor(fptr(math.NaN()), ruleSeq, "base"); got != "base" {
		t.Errorf("ResolveColor(NaN) = %q, want base color", got)
	}
}

func TestResolveColorNoMatchReturnsBase(t *testing.T) {
	ruleSeq := []types.ThresholdRule{
		{ID: "1", Color: "blue", Operator: types.OpLessThan, Value: 10},
	}
	if got := ResolveColor(fptr(50), ruleSeq, "#3b82f6"); got != "#3b82f6" {
		t.Errorf("ResolveColor() = %q, want base color", got)
	}
}

func TestResolveColorEmptyRules(t *testing.T) {
	if got := ResolveColor(fptr(1), nil, "base"); got != "base" {
		t.Errorf("ResolveColor() with no rules = %q, want base", got)
	}
}

func TestMatchesOperators(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		rule  types.ThresholdRule
		want  bool
	}{
		{"equal within tolerance", 25.004, types.ThresholdRule{Operator: types.OpEqual, Value: 25.0}, true},
		{"equal outside tolerance", 25.02, types.ThresholdRule{Operator: types.OpEqual, Value: 25.0}, false},
		{"less than true", 9.99, types.ThresholdRule{Operator: types.OpLessThan, Value: 10}, true},
		{"less than boundary", 10, types.ThresholdRule{Operator: types.OpLessThan, Value: 10}, false},
		{"greater than true", 10.01, types.ThresholdRule{Operator: types.OpGreaterThan, Value: 10}, true},
		{"greater than boundary", 10, types.ThresholdRule{Operator: types.OpGreaterThan, Value: 10}, false},
		{"less or equal boundary", 10, types.ThresholdRule{Operator: types.OpLessThanEq, Value: 10}, true},
		{"greater or equal boundary", 10, types.ThresholdRule{Operator: types.OpGreaterThanEq, Value: 10}, true},
		{"greater or equal below", 9.999, types.ThresholdRule{Operator: types.OpGreaterThanEq, Value: 10}, false},
		{"unknown operator never matches", 10, types.ThresholdRule{Operator: "between", Value: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.value, tt.rule); got != tt.want {
				t.Errorf("Matches(%v, %s %v) = %v, want %v",
					tt.value, tt.rule.Operator, tt.rule.Value, got, tt.want)
			}
		})
	}
}

func TestResolveColorDeterministic(t *testing.T) {
	ruleSeq := []types.ThresholdRule{
		{ID: "1", Color: "blue", Operator: types.OpLessThan, Value: 10, Label: "Cold"},
		{ID: "2", Color: "amber", Operator: types.OpLessThan, Value: 25, Label: "Mild"},
		{ID: "3", Color: "red", Operator: types.OpGreaterThanEq, Value: 25, Label: "Hot"},
	}
	first := ResolveColor(fptr(17.3), ruleSeq, "gray")
	for i := 0; i < 100; i++ {
		if got := ResolveColor(fptr(17.3), ruleSeq, "gray"); got != first {
			t.Fatalf("ResolveColor() not deterministic: %q != %q", got, first)
		}
	}
}
