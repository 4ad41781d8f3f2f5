package types

// RuleOperator defines comparison operators for threshold rule evaluation.
type RuleOperator string

const (
	OpEqual         RuleOperator = "="
	OpLessThan      RuleOperator = "<"
	OpGreaterThan   RuleOperator = ">"
	OpLessThanEq    RuleOperator = "<="
	OpGreaterThanEq RuleOperator = ">="
)

// ValidOperator reports whether op is a recognized comparison operator.
func ValidOperator(op RuleOperator) bool {
	switch op {
	case OpEqual, OpLessThan, OpGreaterThan, OpLessThanEq, OpGreaterThanEq:
		return true
	}
	return false
}

// ResultStatus classifies how a PolygonDataResult was produced. The display
// color alone is lossy for programmatic consumers (disabled, error, and
// no-rule-match all collapse into colors), so the status is carried
// explicitly alongside it.
type ResultStatus string

const (
	// ResultOK means a value was computed and a threshold rule matched.
	ResultOK ResultStatus = "ok"
	// ResultNoMatch means a value was computed but no rule fired; the
	// source's base color applies.
	ResultNoMatch ResultStatus = "no_match"
	// ResultNoData means no sample qualified for the window; the source's
	// base color applies.
	ResultNoData ResultStatus = "no_data"
	// ResultSourceDisabled means the polygon's source is off; the neutral
	// gray applies and the provider is never consulted.
	ResultSourceDisabled ResultStatus = "source_disabled"
	// ResultError means the computation itself failed; the error red applies.
	ResultError ResultStatus = "error"
)

// Fallback colors for the non-ok statuses. These are deliberately distinct:
// gray means "value unknown because the source is off", red means "value
// unknown because the computation failed", and a source's own base color
// means "value computed but no rule matched".
const (
	DisabledColor = "#cccccc"
	ErrorColor    = "#ff0000"
)

// UnknownFieldName is reported on results synthesized for polygons whose
// source could not be resolved.
const UnknownFieldName = "Unknown"
