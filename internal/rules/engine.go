// Package rules implements the threshold rule engine that maps a reduced
// measurement value to a display color. Evaluation is pure and total: the
// same inputs always yield the same output, and iteration order over the
// rule sequence is the only ordering that matters (first match wins).
package rules

import (
	"math"

	"shademap/internal/types"
)

// EqualityTolerance absorbs floating-point noise in "=" comparisons.
const EqualityTolerance = 0.01

// ResolveColor decides the display color for a value against an ordered rule
// sequence. A nil or NaN value short-circuits to baseColor without rule
// evaluation. Otherwise the first satisfied rule in sequence order wins;
// if no rule matches, baseColor is returned.
func ResolveColor(value *float64, ruleSeq []types.ThresholdRule, baseColor string) string {
	if value == nil || math.IsNaN(*value) {
		return baseColor
	}
	for _, rule := range ruleSeq {
		if Matches(*value, rule) {
			return rule.Color
		}
	}
	return baseColor
}

// Matches evaluates a single threshold rule against a value. The "=" operator
// uses EqualityTolerance; the inequality operators compare exactly. Unknown
// operators never match.
func Matches(value float64, rule types.ThresholdRule) bool {
	switch rule.Operator {
	case types.OpEqual:
		return math.Abs(value-rule.Value) < EqualityTolerance
	case types.OpLessThan:
		return value < rule.Value
	case types.OpGreaterThan:
		return value > rule.Value
	case types.OpLessThanEq:
		return value <= rule.Value
	case types.OpGreaterThanEq:
		return value >= rule.Value
	default:
		return false
	}
}
