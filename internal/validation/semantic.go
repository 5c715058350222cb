package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
	"github.com/rendis/wfkit/pkg/workflow"
)

// minScheduleInterval is the shortest interval the hosted runner honors.
const minScheduleInterval = 5 * time.Minute

// cronParser accepts the five-field syntax of schedule triggers. Descriptors
// such as @daily are rejected.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// outputLine matches shell lines that write a step output.
var outputLine = regexp.MustCompile(`(?m)echo\s+"?([A-Za-z_][A-Za-z0-9_-]*)=.*>>\s*"?\$\{?GITHUB_OUTPUT`)

type stepInfo struct {
	id      string
	uses    bool
	outputs map[string]bool
}

type jobInfo struct {
	id        string
	needs     map[string]bool
	hasMatrix bool
	axes      map[string]bool // nil when the matrix is computed at run time
	outputs   map[string]bool
	steps     []stepInfo
}

// scope is where an expression is evaluated: workflow level when job is
// nil, job level when step is -1.
type scope struct {
	job  *jobInfo
	step int
}

type documentChecker struct {
	result *schema.ValidationResult
	doc    *tree.Map
	inputs map[string]bool // nil when no trigger declares inputs
	jobs   map[string]*jobInfo
	roots  []string
}

// validateSemantic checks expression syntax, context references and
// schedules of a rendered document. w may be nil; when present the step
// outputs recorded by the builder are trusted as well.
func validateSemantic(doc *tree.Map, w *workflow.Workflow) *schema.ValidationResult {
	c := &documentChecker{
		result: &schema.ValidationResult{},
		doc:    doc,
		inputs: declaredInputs(doc),
		jobs:   make(map[string]*jobInfo),
		roots:  expr.Roots(),
	}

	jobs, _ := lookupMap(doc, "jobs")
	for _, id := range tree.Keys(jobs) {
		jobTree, _ := lookupMap(jobs, id)
		var builder *workflow.Job
		if w != nil {
			builder, _ = w.GetJob(id)
		}
		c.jobs[id] = describeJob(id, jobTree, builder)
	}

	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case "jobs":
		case "on":
			c.checkSchedules()
			c.walk("on", pair.Value, scope{step: -1}, "")
		default:
			c.walk(pair.Key, pair.Value, scope{step: -1}, pair.Key)
		}
	}

	for _, id := range tree.Keys(jobs) {
		jobTree, _ := lookupMap(jobs, id)
		info := c.jobs[id]
		base := "jobs." + id
		for pair := jobTree.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key != "steps" {
				c.walk(base+"."+pair.Key, pair.Value, scope{job: info, step: -1}, pair.Key)
				continue
			}
			steps, _ := pair.Value.([]any)
			for i, s := range steps {
				c.walk(fmt.Sprintf("%s.steps[%d]", base, i), s, scope{job: info, step: i}, "")
			}
		}
	}
	return c.result
}

func describeJob(id string, m *tree.Map, builder *workflow.Job) *jobInfo {
	info := &jobInfo{id: id, needs: map[string]bool{}, outputs: map[string]bool{}}
	if m == nil {
		return info
	}
	for _, need := range stringList(mustLookup(m, "needs")) {
		info.needs[need] = true
	}
	if outputs, ok := lookupMap(m, "outputs"); ok {
		for _, name := range tree.Keys(outputs) {
			info.outputs[name] = true
		}
	}
	if matrix, ok := tree.Lookup(m, "strategy", "matrix"); ok {
		info.hasMatrix = true
		if mm, ok := matrix.(*tree.Map); ok {
			info.axes = matrixAxes(mm)
		}
	}

	var built []*workflow.Step
	if builder != nil {
		built = builder.StepList()
	}
	steps, _ := mustLookup(m, "steps").([]any)
	for i, raw := range steps {
		sm, _ := raw.(*tree.Map)
		si := stepInfo{outputs: map[string]bool{}}
		if sm != nil {
			si.id, _ = mustLookup(sm, "id").(string)
			_, si.uses = sm.Get("uses")
			if run, ok := mustLookup(sm, "run").(string); ok {
				for _, match := range outputLine.FindAllStringSubmatch(run, -1) {
					si.outputs[match[1]] = true
				}
			}
		}
		if i < len(built) {
			for _, name := range built[i].Outputs() {
				si.outputs[name] = true
			}
		}
		info.steps = append(info.steps, si)
	}
	return info
}

func matrixAxes(m *tree.Map) map[string]bool {
	axes := map[string]bool{}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case "exclude":
		case "include":
			rows, _ := pair.Value.([]any)
			for _, row := range rows {
				if rm, ok := row.(*tree.Map); ok {
					for _, k := range tree.Keys(rm) {
						axes[k] = true
					}
				}
			}
		default:
			if s, ok := pair.Value.(string); ok && strings.HasPrefix(s, openMarker) {
				return nil
			}
			axes[pair.Key] = true
		}
	}
	return axes
}

func declaredInputs(doc *tree.Map) map[string]bool {
	var inputs map[string]bool
	for _, event := range []string{workflow.EventWorkflowDispatch, workflow.EventWorkflowCall} {
		m, ok := lookupMap(doc, "on", event, "inputs")
		if !ok {
			continue
		}
		if inputs == nil {
			inputs = map[string]bool{}
		}
		for _, name := range tree.Keys(m) {
			inputs[name] = true
		}
	}
	return inputs
}

func (c *documentChecker) walk(path string, v any, sc scope, key string) {
	switch x := v.(type) {
	case *tree.Map:
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			c.walk(path+"."+pair.Key, pair.Value, sc, pair.Key)
		}
	case []any:
		for i, item := range x {
			c.walk(fmt.Sprintf("%s[%d]", path, i), item, sc, "")
		}
	case string:
		c.checkString(path, x, sc, key == "if")
	}
}

func (c *documentChecker) checkString(path, s string, sc scope, condition bool) {
	bodies, err := interpolations(s)
	if err != nil {
		c.result.AddErrorf(path, schema.ErrCodeComposition, "invalid expression in %q: %v", s, err)
		return
	}
	if len(bodies) == 0 && condition && strings.TrimSpace(s) != "" {
		bodies = []string{s}
	}
	for _, body := range bodies {
		refs, err := analyzeExpression(body)
		if err != nil {
			c.result.AddErrorf(path, schema.ErrCodeComposition, "invalid expression %q: %v", body, err)
			continue
		}
		for _, ref := range refs {
			c.checkReference(path, ref, sc)
		}
	}
}

func (c *documentChecker) checkReference(path string, ref reference, sc scope) {
	root := ref[0]
	switch root {
	case "needs":
		if sc.job == nil {
			c.result.AddWarningf(path, schema.ErrCodeValidation, "%s is only available inside a job", ref)
			return
		}
		if len(ref) < 2 {
			return
		}
		if !sc.job.needs[ref[1]] {
			c.result.AddWarningf(path, schema.ErrCodeNotFound,
				"reads %s but job %q does not list %q in needs", ref, sc.job.id, ref[1])
			return
		}
		c.checkJobOutput(path, ref)

	case "jobs":
		if len(ref) < 2 {
			return
		}
		if c.jobs[ref[1]] == nil {
			c.result.AddWarningf(path, schema.ErrCodeNotFound, "reads %s but no job %q exists", ref, ref[1])
			return
		}
		c.checkJobOutput(path, ref)

	case "steps":
		if sc.job == nil {
			c.result.AddWarningf(path, schema.ErrCodeValidation, "%s is only available inside a job", ref)
			return
		}
		if len(ref) < 2 {
			return
		}
		idx := slices.IndexFunc(sc.job.steps, func(s stepInfo) bool { return s.id == ref[1] })
		switch {
		case idx < 0:
			c.result.AddWarningf(path, schema.ErrCodeNotFound,
				"reads %s but job %q has no step %q", ref, sc.job.id, ref[1])
			return
		case sc.step >= 0 && idx >= sc.step:
			c.result.AddWarningf(path, schema.ErrCodeValidation,
				"reads %s but step %q does not run before this step", ref, ref[1])
			return
		}
		target := sc.job.steps[idx]
		if len(ref) >= 4 && ref[2] == "outputs" && !target.uses && !target.outputs[ref[3]] {
			c.result.AddWarningf(path, schema.ErrCodeNotFound,
				"reads %s but step %q never sets output %q", ref, ref[1], ref[3])
		}

	case "matrix":
		if sc.job == nil {
			c.result.AddWarningf(path, schema.ErrCodeValidation, "%s is only available inside a job", ref)
			return
		}
		if !sc.job.hasMatrix {
			c.result.AddWarningf(path, schema.ErrCodeNotFound, "reads %s but job %q has no matrix", ref, sc.job.id)
			return
		}
		if sc.job.axes != nil && len(ref) > 1 && !sc.job.axes[ref[1]] {
			c.result.AddWarningf(path, schema.ErrCodeNotFound,
				"reads %s but the matrix of job %q has no axis %q", ref, sc.job.id, ref[1])
		}

	case "inputs":
		if c.inputs != nil && len(ref) > 1 && !c.inputs[ref[1]] {
			c.result.AddWarningf(path, schema.ErrCodeNotFound, "reads %s but no trigger declares input %q", ref, ref[1])
		}

	default:
		if !slices.Contains(c.roots, root) {
			c.result.AddWarningf(path, schema.ErrCodeValidation, "unknown context %q", root)
		}
	}
}

// checkJobOutput handles needs.<job>.outputs.<name> and
// jobs.<job>.outputs.<name>.
func (c *documentChecker) checkJobOutput(path string, ref reference) {
	if len(ref) < 4 || ref[2] != "outputs" {
		return
	}
	target := c.jobs[ref[1]]
	if target == nil || len(target.steps) == 0 {
		// unknown jobs are reported by the dependency check; reusable
		// workflow jobs declare outputs elsewhere
		return
	}
	if !target.outputs[ref[3]] {
		c.result.AddWarningf(path, schema.ErrCodeNotFound, "reads %s but job %q has no output %q", ref, ref[1], ref[3])
	}
}

func (c *documentChecker) checkSchedules() {
	entries, ok := tree.Lookup(c.doc, "on", workflow.EventSchedule)
	if !ok {
		return
	}
	list, _ := entries.([]any)
	origin := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, entry := range list {
		path := fmt.Sprintf("on.schedule[%d].cron", i)
		em, _ := entry.(*tree.Map)
		spec, _ := mustLookup(em, "cron").(string)
		if spec == "" {
			c.result.AddError(path, schema.ErrCodeValidation, "schedule entry has no cron expression")
			continue
		}
		sched, err := cronParser.Parse(spec)
		if err != nil {
			c.result.AddErrorf(path, schema.ErrCodeValidation, "invalid cron expression %q: %v", spec, err)
			continue
		}
		first := sched.Next(origin)
		if second := sched.Next(first); second.Sub(first) < minScheduleInterval {
			c.result.AddWarningf(path, schema.ErrCodeValidation,
				"cron expression %q runs more often than every %s", spec, minScheduleInterval)
		}
	}
}

func lookupMap(m *tree.Map, keys ...string) (*tree.Map, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := tree.Lookup(m, keys...)
	if !ok {
		return nil, false
	}
	mm, ok := v.(*tree.Map)
	return mm, ok
}

func mustLookup(m *tree.Map, key string) any {
	if m == nil {
		return nil
	}
	v, _ := m.Get(key)
	return v
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
