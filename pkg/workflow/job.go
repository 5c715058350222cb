package workflow

import (
	"fmt"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

// Job is a set of steps run on one runner, or a call to a reusable
// workflow. Exactly one of Steps or Uses must be configured.
type Job struct {
	name            any
	permissions     any
	needs           []string
	cond            any
	runsOn          any
	environment     any
	concurrency     any
	outputs         *tree.Map
	env             *tree.Map
	defaults        any
	timeoutMinutes  any
	strategy        any
	maxParallel     any
	continueOnError any
	container       any
	services        *tree.Map
	uses            any
	with            *tree.Map
	secrets         any
	steps           []*Step
}

// NewJob returns an empty job.
func NewJob() *Job {
	return &Job{}
}

func (j *Job) Name(name any) *Job {
	j.name = resolve(name)
	return j
}

// Permissions accepts PermissionsReadAll, PermissionsWriteAll, a
// Permissions value, a map or an expression. nil clears it.
func (j *Job) Permissions(p any) *Job {
	j.permissions = resolve(p)
	return j
}

// Needs replaces the jobs this job waits for. A single id renders as a
// scalar (needs: build) and several as a list; a one-element list cannot
// be requested.
func (j *Job) Needs(ids ...string) *Job {
	j.needs = append([]string(nil), ids...)
	return j
}

func (j *Job) If(cond any) *Job {
	j.cond = resolve(cond)
	return j
}

// RunsOn accepts a label, a list of labels, a RunsOn value or an expression.
func (j *Job) RunsOn(runner any) *Job {
	j.runsOn = resolve(runner)
	return j
}

// Environment accepts a name or an Environment value.
func (j *Job) Environment(env any) *Job {
	j.environment = resolve(env)
	return j
}

// Concurrency accepts a group name, an expression or a Concurrency value.
func (j *Job) Concurrency(c any) *Job {
	j.concurrency = resolve(c)
	return j
}

// Outputs replaces the job outputs. Keys render in sorted order.
func (j *Job) Outputs(outputs map[string]any) *Job {
	j.outputs = putAll(outputs)
	return j
}

// Output adds one job output, keeping insertion order.
func (j *Job) Output(name string, value any) *Job {
	j.outputs = putOne(j.outputs, name, value)
	return j
}

// Env replaces the job environment. Keys render in sorted order.
func (j *Job) Env(vars map[string]any) *Job {
	j.env = putAll(vars)
	return j
}

// EnvVar adds one environment variable, keeping insertion order.
func (j *Job) EnvVar(name string, value any) *Job {
	j.env = putOne(j.env, name, value)
	return j
}

func (j *Job) Defaults(d Defaults) *Job {
	j.defaults = d
	return j
}

func (j *Job) TimeoutMinutes(v any) *Job {
	j.timeoutMinutes = resolve(v)
	return j
}

func (j *Job) Strategy(s Strategy) *Job {
	s.Matrix = resolve(s.Matrix)
	j.strategy = s
	return j
}

// Matrix is shorthand for Strategy(Strategy{Matrix: m}).
func (j *Job) Matrix(m any) *Job {
	return j.Strategy(Strategy{Matrix: m})
}

func (j *Job) MaxParallel(v any) *Job {
	j.maxParallel = resolve(v)
	return j
}

func (j *Job) ContinueOnError(v any) *Job {
	j.continueOnError = resolve(v)
	return j
}

// Container accepts an image reference or a Container value.
func (j *Job) Container(c any) *Job {
	j.container = resolve(c)
	return j
}

// Service adds a service container, keeping insertion order.
func (j *Job) Service(id string, c any) *Job {
	j.services = putOne(j.services, id, c)
	return j
}

// Uses makes the job call a reusable workflow: a path string or a
// *Workflow, which renders as ./.github/workflows/<file>.yml.
func (j *Job) Uses(target any) *Job {
	j.uses = resolve(target)
	return j
}

// With replaces the inputs passed to a reusable workflow.
func (j *Job) With(inputs map[string]any) *Job {
	j.with = putAll(inputs)
	return j
}

// Input adds one reusable workflow input, keeping insertion order.
func (j *Job) Input(name string, value any) *Job {
	j.with = putOne(j.with, name, value)
	return j
}

// Secrets accepts SecretsInherit or a map of secrets.
func (j *Job) Secrets(v any) *Job {
	if m, ok := v.(map[string]any); ok {
		j.secrets = putAll(m)
		return j
	}
	j.secrets = resolve(v)
	return j
}

// Step appends one step.
func (j *Job) Step(s *Step) *Job {
	return j.Steps(s)
}

// Steps appends steps in order.
func (j *Job) Steps(steps ...*Step) *Job {
	for _, s := range steps {
		if s != nil {
			j.steps = append(j.steps, s)
		}
	}
	return j
}

// StepList returns the configured steps.
func (j *Job) StepList() []*Step { return append([]*Step(nil), j.steps...) }

// StepIDs returns the ids of steps that have one, in order.
func (j *Job) StepIDs() []string {
	var out []string
	for _, s := range j.steps {
		if s.id != "" {
			out = append(out, s.id)
		}
	}
	return out
}

// NeedsIDs returns the jobs this job depends on.
func (j *Job) NeedsIDs() []string { return append([]string(nil), j.needs...) }

// OutputNames returns declared job output names in order.
func (j *Job) OutputNames() []string { return tree.Keys(j.outputs) }

// InputNames returns the reusable workflow inputs passed in with.
func (j *Job) InputNames() []string { return tree.Keys(j.with) }

// MatrixAxes returns the matrix axis names, or nil without a static matrix.
func (j *Job) MatrixAxes() []string {
	s, ok := j.strategy.(Strategy)
	if !ok {
		return nil
	}
	m, ok := s.Matrix.(*Matrix)
	if !ok || m == nil {
		return nil
	}
	return m.Axes()
}

// HasStaticMatrix reports whether the matrix axes are known at build time.
func (j *Job) HasStaticMatrix() bool {
	s, ok := j.strategy.(Strategy)
	if !ok {
		return false
	}
	_, ok = s.Matrix.(*Matrix)
	return ok
}

// UsesRef returns the rendered reusable workflow reference, or "".
func (j *Job) UsesRef() string {
	switch u := j.uses.(type) {
	case *Workflow:
		return u.Ref()
	case string:
		return u
	case nil:
		return ""
	}
	return fmt.Sprint(j.uses)
}

// DisplayName returns the job name when it is a plain string.
func (j *Job) DisplayName() string {
	s, _ := j.name.(string)
	return s
}

// Values returns the raw job-level values, for reference inspection.
// Step values are not included.
func (j *Job) Values() []any {
	out := []any{j.name, j.cond, j.runsOn, j.environment, j.concurrency, j.timeoutMinutes,
		j.strategy, j.maxParallel, j.continueOnError, j.container, j.secrets}
	return append(out, mapValues(j.outputs, j.env, j.with, j.services)...)
}

// Render returns the job in its fixed key order. Every configuration
// problem is reported in one aggregate error.
func (j *Job) Render() (*tree.Map, error) {
	res := &schema.ValidationResult{}
	m := j.render("", res)
	return m, res.AsError(schema.ErrCodeStructural, fmt.Sprintf("invalid job configuration: %s", quoted(j.label(""))))
}

func (j *Job) label(id string) string {
	if id != "" {
		return id
	}
	if n := j.DisplayName(); n != "" {
		return n
	}
	return "job"
}

func (j *Job) render(path string, res *schema.ValidationResult) *tree.Map {
	r := newRenderer(path, res)
	r.set("name", j.name)
	r.set("permissions", j.permissions)
	switch len(j.needs) {
	case 0:
	case 1:
		r.set("needs", j.needs[0])
	default:
		r.set("needs", j.needs)
	}
	r.set("if", j.cond)
	r.set("runs-on", j.runsOn)
	r.set("environment", j.environment)
	r.set("concurrency", j.concurrency)
	r.set("outputs", j.outputs)
	r.set("env", j.env)
	r.set("defaults", j.defaults)
	r.set("timeout-minutes", j.timeoutMinutes)
	r.set("strategy", j.strategy)
	r.set("max-parallel", j.maxParallel)
	r.set("continue-on-error", j.continueOnError)
	r.set("container", j.container)
	r.set("services", j.services)
	if ref := j.UsesRef(); ref != "" {
		r.set("uses", ref)
	}
	r.set("with", j.with)
	r.set("secrets", j.secrets)

	hasSteps, hasUses := len(j.steps) > 0, j.UsesRef() != ""
	switch {
	case hasSteps && hasUses:
		r.fail("", "'steps' and 'uses' are mutually exclusive")
	case !hasSteps && !hasUses:
		r.fail("", "requires either 'steps' or a 'uses' property")
	}
	if hasSteps {
		if v, ok := r.out.Get("runs-on"); !ok || emptyValue(v) {
			r.fail("runs-on", "jobs with steps require 'runs-on'")
		}
		steps := make([]any, 0, len(j.steps))
		seen := map[string]int{}
		for i, s := range j.steps {
			stepPath := join(r.at("steps"), fmt.Sprintf("[%d]", i))
			if s.id != "" {
				if prev, dup := seen[s.id]; dup {
					res.AddErrorf(join(stepPath, "id"), schema.ErrCodeStructural,
						"duplicate step id %q (first used by steps[%d])", s.id, prev)
				} else {
					seen[s.id] = i
				}
			}
			steps = append(steps, s.render(stepPath, res))
		}
		r.out.Set("steps", steps)
	}
	return r.out
}

func emptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case *tree.Map:
		return x.Len() == 0
	}
	return false
}
