package model

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one of the pipeline's named failure conditions
// (spec.md §7).
type ErrorCode string

const (
	CodeInvalidInput                  ErrorCode = "INVALID_INPUT"
	CodeNoAxesFound                    ErrorCode = "NO_AXES_FOUND"
	CodeReferenceMissingPosition       ErrorCode = "REFERENCE_MISSING_POSITION"
	CodeVertexUnsnapped                ErrorCode = "VERTEX_UNSNAPPED"
	CodeSlabFootprintUnreconstructable ErrorCode = "SLAB_FOOTPRINT_UNRECONSTRUCTABLE"
	CodeObjectCountDrift               ErrorCode = "OBJECT_COUNT_DRIFT"
	CodeValidationFailed               ErrorCode = "VALIDATION_FAILED"
)

// Severity marks whether an AppError should abort the pipeline.
type Severity uint8

const (
	SeverityFatal Severity = iota
	SeverityWarning
	SeverityRecoverable
)

// AppError is the pipeline's error type: a stable code, a severity, a
// human message, structured details, and an optional wrapped cause.
type AppError struct {
	Code     ErrorCode
	Severity Severity
	Message  string
	Details  map[string]interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError with the given code/severity.
func NewAppError(code ErrorCode, severity Severity, message string, err error) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Err:      err,
		Details:  make(map[string]interface{}),
	}
}

// WithDetails attaches a key/value pair and returns the receiver for chaining.
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsFatal reports whether err is an AppError whose severity aborts the run.
func IsFatal(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// ExitCode maps a fatal AppError to the process exit code spec.md §7
// assigns it. Non-fatal or non-AppError values return 0.
func ExitCode(err error) int {
	var ae *AppError
	if !errors.As(err, &ae) {
		return 0
	}
	switch ae.Code {
	case CodeInvalidInput:
		return 10
	case CodeNoAxesFound:
		return 20
	case CodeValidationFailed:
		return 30
	default:
		return 0
	}
}

// ErrNilElements is returned when the pipeline is invoked with no elements.
var ErrNilElements = errors.New("no elements supplied to pipeline")
