package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Conditioning and processing failures. Each is fatal to a single input
	// only; batch callers record it and move on.
	ErrTypeMissingTimeColumn ErrorType = "MISSING_TIME_COLUMN"
	ErrTypeInvalidUnit       ErrorType = "INVALID_UNIT"
	ErrTypeInvalidCriteria   ErrorType = "INVALID_CRITERIA"
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeEmptyPopulation   ErrorType = "EMPTY_POPULATION"

	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
// when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// NewMissingTimeColumnError is returned when a frame has no column whose
// name contains "time".
func NewMissingTimeColumnError(columns []string) *AppError {
	return NewAppError(ErrTypeMissingTimeColumn, "time column not found in the data", nil).
		WithContext("columns", columns)
}

// NewInvalidUnitError creates an unsupported time unit error
func NewInvalidUnitError(unit string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidUnit, fmt.Sprintf("unsupported time unit %q", unit), cause).
		WithContext("unit", unit)
}

// NewInvalidCriteriaError creates an unsupported enum value error for trim
// criteria and filter directions.
func NewInvalidCriteriaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidCriteria, message, cause)
}

// NewInvalidInputError creates an error for a matrix or argument that
// violates the processing preconditions.
func NewInvalidInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidInput, message, cause)
}

// NewEmptyPopulationError creates the error returned when summarizing zero cells
func NewEmptyPopulationError() *AppError {
	return NewAppError(ErrTypeEmptyPopulation, "cannot summarize an empty features table", nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
