package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
	"github.com/rendis/wfkit/pkg/workflow"
)

// Linter runs every lint stage over workflows.
type Linter struct {
	structural *StructuralValidator
}

// NewLinter compiles the document schema.
func NewLinter() (*Linter, error) {
	sv, err := NewStructuralValidator()
	if err != nil {
		return nil, err
	}
	return &Linter{structural: sv}, nil
}

// Report is the lint result of one workflow file.
type Report struct {
	File   string                   `json:"file"`
	Result *schema.ValidationResult `json:"result"`
}

// Lint renders w and runs the stages in order: render, document schema,
// expressions and references, dependency graph. A failing render or
// schema stage stops the pipeline.
func (l *Linter) Lint(w *workflow.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	doc, err := w.Render()
	if err != nil {
		result.AddErr("", schema.ErrCodeStructural, err)
		return result
	}

	result.Merge(l.structural.Validate(doc))
	if !result.Valid() {
		return result
	}

	result.Merge(validateSemantic(doc, w))
	result.Merge(validateDAG(w))
	return result
}

// LintDocument lints an already rendered document. The dependency graph
// stage needs the builder and is skipped.
func (l *Linter) LintDocument(doc *tree.Map) *schema.ValidationResult {
	result := l.structural.Validate(doc)
	if !result.Valid() {
		return result
	}
	result.Merge(validateSemantic(doc, nil))
	return result
}

// LintAll lints each workflow and the calls between them. Reports are
// sorted by file name.
func (l *Linter) LintAll(ws []*workflow.Workflow) []Report {
	byFile := make(map[string]*workflow.Workflow, len(ws))
	results := make(map[string]*schema.ValidationResult, len(ws))
	for _, w := range ws {
		file := w.FileName() + ".yml"
		if prev, ok := byFile[file]; ok {
			results[file].AddErrorf("", schema.ErrCodeConflict,
				"workflows %q and %q both render to %s", prev.DisplayName(), w.DisplayName(), file)
			continue
		}
		byFile[file] = w
		results[file] = l.Lint(w)
	}

	for file, w := range byFile {
		results[file].Merge(validateCalls(w, byFile))
	}

	files := make([]string, 0, len(results))
	for file := range results {
		files = append(files, file)
	}
	sort.Strings(files)

	reports := make([]Report, len(files))
	for i, file := range files {
		reports[i] = Report{File: file, Result: results[file]}
	}
	return reports
}

// Combined merges the results of reports, prefixing paths with the file.
func Combined(reports []Report) *schema.ValidationResult {
	out := &schema.ValidationResult{}
	for _, r := range reports {
		for _, issue := range r.Result.Errors {
			out.AddError(qualify(r.File, issue.Path), issue.Code, issue.Message)
		}
		for _, issue := range r.Result.Warnings {
			out.AddWarning(qualify(r.File, issue.Path), issue.Code, issue.Message)
		}
	}
	return out
}

func qualify(file, path string) string {
	if path == "" {
		return file
	}
	return file + ":" + path
}

// validateCalls checks jobs that call local reusable workflows: the target
// must be part of the set, expose workflow_call and receive the inputs it
// declares.
func validateCalls(w *workflow.Workflow, byFile map[string]*workflow.Workflow) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	prefix := "./" + workflow.WorkflowsDir + "/"

	for _, id := range w.JobIDs() {
		j, _ := w.GetJob(id)
		ref := j.UsesRef()
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		path := "jobs." + id + ".uses"
		target, ok := byFile[strings.TrimPrefix(ref, prefix)]
		if !ok {
			result.AddWarningf(path, schema.ErrCodeNotFound, "calls %s which is not generated here", ref)
			continue
		}
		call, ok := target.Trigger(workflow.EventWorkflowCall)
		if !ok {
			result.AddErrorf(path, schema.ErrCodeValidation,
				"calls %s which does not declare a %s trigger", ref, workflow.EventWorkflowCall)
			continue
		}
		checkCallInputs(result, "jobs."+id+".with", j, call)
	}
	return result
}

func checkCallInputs(result *schema.ValidationResult, path string, j *workflow.Job, call any) {
	var opts *workflow.WorkflowCallOptions
	switch x := call.(type) {
	case workflow.WorkflowCallOptions:
		opts = &x
	case *workflow.WorkflowCallOptions:
		opts = x
	}
	if opts == nil {
		return
	}

	given := map[string]bool{}
	for _, name := range j.InputNames() {
		given[name] = true
	}
	declared := map[string]bool{}
	for _, in := range opts.Inputs {
		declared[in.Name] = true
		if in.Required && !given[in.Name] {
			result.AddWarningf(path, schema.ErrCodeValidation, "required input %q is not passed", in.Name)
		}
	}
	for _, name := range j.InputNames() {
		if !declared[name] {
			result.AddWarning(fmt.Sprintf("%s.%s", path, name), schema.ErrCodeNotFound,
				fmt.Sprintf("input %q is not declared by the called workflow", name))
		}
	}
}
