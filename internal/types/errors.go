package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants. Handlers and services use these constants
// instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationInvalidGeometry  ErrorCode = "validation_invalid_geometry"
	ErrCodeValidationInvalidLat       ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLng       ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationTimeWindow       ErrorCode = "validation_time_window_invalid"
	ErrCodeValidationUnknownField     ErrorCode = "validation_unknown_field"
	ErrCodeValidationInvalidOperator  ErrorCode = "validation_invalid_operator"
	ErrCodeValidationInvalidColor     ErrorCode = "validation_invalid_color"
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidJSON      ErrorCode = "validation_invalid_json"
	ErrCodeValidationNoEnabledSources ErrorCode = "validation_no_enabled_sources"
	ErrCodeValidationSourceRequired   ErrorCode = "validation_source_required"

	// Not Found (404)
	ErrCodeNotFoundPolygon ErrorCode = "not_found_polygon"
	ErrCodeNotFoundSource  ErrorCode = "not_found_source"
	ErrCodeNotFoundRule    ErrorCode = "not_found_rule"

	// Conflict (409)
	ErrCodeConflictDrawingActive ErrorCode = "conflict_drawing_in_progress"

	// Internal/Upstream (500/502)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamSeries     ErrorCode = "upstream_series_unavailable"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent error formatting,
// HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
