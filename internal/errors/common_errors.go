package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeLookup     ErrorType = "LOOKUP"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
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

// DateConflictError reports that an upload carries trading dates that are
// already present in the persisted table. The intended workflow has no
// automatic overwrite path: the caller must remove the dates from the file
// or delete the stored data first. No state changes when this is returned.
type DateConflictError struct {
	Dates []time.Time
}

// Error implements the error interface
func (e *DateConflictError) Error() string {
	parts := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		parts[i] = d.Format("02.01.2006")
	}
	sort.Strings(parts)
	return fmt.Sprintf("data for these dates already exists: %s", strings.Join(parts, ", "))
}

// NewDateConflictError creates a date conflict error for the given dates
func NewDateConflictError(dates []time.Time) *DateConflictError {
	return &DateConflictError{Dates: dates}
}

// IsDateConflict reports whether err is a DateConflictError
func IsDateConflict(err error) bool {
	var conflict *DateConflictError
	return errors.As(err, &conflict)
}

// IsParseError reports whether err is a parsing failure
func IsParseError(err error) bool {
	var app *AppError
	return errors.As(err, &app) && app.Type == ErrTypeParsing
}

// IsStorageError reports whether err is a storage failure
func IsStorageError(err error) bool {
	var app *AppError
	return errors.As(err, &app) && app.Type == ErrTypeStorage
}

// Helper functions for common error types

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewLookupError creates a spot-price lookup error. Lookup failures are
// non-fatal: the caller falls back to a user-supplied value.
func NewLookupError(message string, cause error) *AppError {
	return NewAppError(ErrTypeLookup, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
