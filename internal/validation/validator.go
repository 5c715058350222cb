// Package validation lints workflows before they are written: the rendered
// document is checked against a schema, expressions are parsed and their
// context references resolved, and the needs graph is checked for cycles.
package validation

import (
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// Validator lints workflows.
type Validator interface {
	Lint(w *workflow.Workflow) *schema.ValidationResult
	LintAll(ws []*workflow.Workflow) []Report
}

var _ Validator = (*Linter)(nil)
