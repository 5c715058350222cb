package schema

import (
	"fmt"
	"strings"
)

// Error codes for structured error reporting.
const (
	ErrCodeStructural    = "STRUCTURAL_ERROR"
	ErrCodeComposition   = "COMPOSITION_ERROR"
	ErrCodeIO            = "IO_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeCycleDetected = "CYCLE_DETECTED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
)

// Error is the structured error type for all wfkit operations.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Path    string         `json:"path,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath attaches the document path the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Sentinels usable with errors.Is; only the code is compared.
var (
	ErrStructural  = &Error{Code: ErrCodeStructural}
	ErrComposition = &Error{Code: ErrCodeComposition}
	ErrIO          = &Error{Code: ErrCodeIO}
	ErrCycle       = &Error{Code: ErrCodeCycleDetected}
)

// AggregateError carries every violation found in one unit of work
// (a job, a workflow, a generate run) instead of only the first.
type AggregateError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Errors  []error `json:"-"`
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is matches sentinels by code, so errors.Is(agg, ErrStructural) holds for
// a structural aggregate even when it has no children of that code.
func (e *AggregateError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

// NewAggregate returns nil when errs is empty.
func NewAggregate(code, message string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Code: code, Message: message, Errors: errs}
}
