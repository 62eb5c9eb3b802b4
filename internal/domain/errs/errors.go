// Package errs holds the typed failures of the roster ingestion pipeline.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ExtractionKind classifies why a payload could not be turned into a table
type ExtractionKind string

const (
	NoTableFound      ExtractionKind = "no_table_found"
	CorruptPayload    ExtractionKind = "corrupt_payload"
	UnsupportedFormat ExtractionKind = "unsupported_format"
	EmptyTable        ExtractionKind = "empty_table"
)

// ExtractionError is returned when no usable table can be read from a payload. Never transient.
type ExtractionError struct {
	Kind   ExtractionKind
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed (%s)", e.Kind)
	if e.Format != "" {
		msg = fmt.Sprintf("%s extraction failed (%s)", e.Format, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Validation codes
const (
	CodeInvalid                 = "invalid"
	CodeRequired                = "required"
	CodeMalformedMapping        = "malformed_mapping"
	CodeUnrecognizedPhoneFormat = "unrecognized_phone_format"
	CodeDuplicate               = "duplicate"
	CodeTooLarge                = "too_large"
	CodeUnsupportedFile         = "unsupported_file"
	CodeNotFound                = "not_found"
)

// ValidationError reports bad configuration or input detected before or outside row processing
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message
func NewValidationError(field, code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failure reaching a remote source. Always transient.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable marks transport failures for the task queue retry policy
func (e *TransportError) Retryable() bool { return true }

// ConflictError rejects a manual shift that collides with an existing one
type ConflictError struct {
	ExistingShiftID uint
	Message         string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shift conflict with shift #%d: %s", e.ExistingShiftID, e.Message)
}

// MissingColumnError is returned when a mapped table lacks required canonical columns
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column(s) not found: %s", strings.Join(e.Columns, ", "))
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
