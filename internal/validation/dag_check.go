package validation

import (
	"github.com/rendis/wfkit/internal/dag"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// validateDAG checks the needs graph: cycles are errors, needs naming
// unknown jobs are warnings.
func validateDAG(w *workflow.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	d, err := dag.Parse(w)
	if err != nil {
		result.AddErr("jobs", schema.ErrCodeCycleDetected, err)
		return result
	}
	for _, id := range d.Order {
		for _, missing := range d.Missing[id] {
			result.AddWarningf("jobs."+id+".needs", schema.ErrCodeNotFound, "needs unknown job %q", missing)
		}
	}
	return result
}
