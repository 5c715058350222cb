package schema

import "fmt"

// ValidationSeverity is "error" for issues that block rendering and
// "warning" for advisory lint findings.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single validation problem with location context.
type ValidationIssue struct {
	Path     string             `json:"path"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// Err converts the issue into a structured Error.
func (i ValidationIssue) Err() *Error {
	return NewError(i.Code, i.Message).WithPath(i.Path)
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: [%s] %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("%s: %s: [%s] %s", i.Severity, i.Path, i.Code, i.Message)
}

// ValidationResult aggregates all issues from a render or lint pass.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid reports whether the result holds no errors. Warnings never fail.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(sev ValidationSeverity, path, code, message string) {
	issue := ValidationIssue{Path: path, Code: code, Message: message, Severity: sev}
	if sev == SeverityError {
		r.Errors = append(r.Errors, issue)
	} else {
		r.Warnings = append(r.Warnings, issue)
	}
}

func (r *ValidationResult) AddError(path, code, message string) {
	r.add(SeverityError, path, code, message)
}

func (r *ValidationResult) AddErrorf(path, code, format string, args ...any) {
	r.add(SeverityError, path, code, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) AddWarning(path, code, message string) {
	r.add(SeverityWarning, path, code, message)
}

func (r *ValidationResult) AddWarningf(path, code, format string, args ...any) {
	r.add(SeverityWarning, path, code, fmt.Sprintf(format, args...))
}

// AddErr records err as an error issue. Aggregates are flattened and
// structured errors keep their code and path.
func (r *ValidationResult) AddErr(path, code string, err error) {
	switch e := err.(type) {
	case nil:
	case *AggregateError:
		for _, child := range e.Errors {
			r.AddErr(path, e.Code, child)
		}
	case *Error:
		p := e.Path
		if p == "" {
			p = path
		}
		r.AddError(p, e.Code, e.Message)
	default:
		r.AddError(path, code, err.Error())
	}
}

// Merge appends the issues of other, which may be nil.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Issues returns errors followed by warnings.
func (r *ValidationResult) Issues() []ValidationIssue {
	out := make([]ValidationIssue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// ToError converts the result to a VALIDATION_ERROR aggregate if invalid,
// nil if valid.
func (r *ValidationResult) ToError() error {
	if r.Valid() {
		return nil
	}
	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
	}
	return r.AsError(ErrCodeValidation, msg)
}

// AsError converts the errors of the result into an aggregate with the
// given code and message, nil if valid.
func (r *ValidationResult) AsError(code, message string) error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, issue := range r.Errors {
		errs[i] = issue.Err()
	}
	return NewAggregate(code, message, errs)
}
