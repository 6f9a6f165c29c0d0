package core

import (
	"errors"
	"fmt"
)

// Code classifies a workbench error.
type Code string

const (
	CodeUnknown     Code = "unknown"
	CodeValidation  Code = "validation"
	CodeNotFound    Code = "not_found"
	CodeTransport   Code = "transport"
	CodePersistence Code = "persistence"
	CodeCanceled    Code = "canceled"
)

// Common errors.
var (
	ErrEmptyName               = errors.New("name cannot be empty")
	ErrNameConflict            = errors.New("name already in use")
	ErrNotFound                = errors.New("not found")
	ErrPersistence             = errors.New("persistence failed")
	ErrCanceled                = errors.New("request canceled")
	ErrUnsupportedProtocol     = errors.New("protocol not supported")
	ErrUnsupportedMethod       = errors.New("method not supported")
	ErrSaveDestinationRequired = errors.New("save destination required")
)

// Error carries a code and, for validation failures, the offending field.
type Error struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewValidationError reports a recoverable input problem on field.
func NewValidationError(field string, err error, format string, args ...any) error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewNotFoundError reports a stale or unknown id.
func NewNotFoundError(kind, id string) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %q", kind, id), Err: ErrNotFound}
}

// NewPersistenceError wraps a storage failure. It returns nil when err is nil.
func NewPersistenceError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodePersistence, Err: fmt.Errorf("%w: %w", ErrPersistence, err)}
}

// NewTransportError wraps a transport failure. It returns nil when err is nil.
func NewTransportError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeTransport, Err: err}
}

// CodeOf extracts the code from a wrapped error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, ErrCanceled) {
		return CodeCanceled
	}
	return CodeUnknown
}

// FieldOf returns the field name of a validation error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
