package workflow

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

// WorkflowsDir is where the runner looks for workflow files, relative to
// the repository root.
const WorkflowsDir = ".github/workflows"

// Workflow is one workflow file: triggers plus an ordered set of jobs.
type Workflow struct {
	name        string
	fileName    string
	on          *orderedmap.OrderedMap[string, any]
	permissions any
	env         *tree.Map
	defaults    any
	concurrency any
	jobs        *orderedmap.OrderedMap[string, *Job]
}

// Option configures a Workflow at construction.
type Option func(*Workflow)

// WithFileName overrides the file name (without extension). The default is
// the kebab-case form of the workflow name.
func WithFileName(name string) Option {
	return func(w *Workflow) { w.fileName = name }
}

// New returns a workflow with the given display name.
func New(name string, opts ...Option) *Workflow {
	w := &Workflow{
		name:     name,
		fileName: KebabCase(name),
		on:       orderedmap.New[string, any](),
		jobs:     orderedmap.New[string, *Job](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DisplayName returns the workflow name.
func (w *Workflow) DisplayName() string { return w.name }

// FileName returns the file name without extension.
func (w *Workflow) FileName() string { return w.fileName }

// Ref is the local path other workflows use to call this one.
func (w *Workflow) Ref() string {
	return "./" + WorkflowsDir + "/" + w.fileName + ".yml"
}

// On sets the options of one trigger event, replacing earlier options for
// that event. nil options render as null.
func (w *Workflow) On(event string, options any) *Workflow {
	w.on.Set(event, resolve(options))
	return w
}

// Triggers returns the configured event names in order.
func (w *Workflow) Triggers() []string {
	var out []string
	for pair := w.on.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Trigger returns the raw options of an event.
func (w *Workflow) Trigger(event string) (any, bool) {
	return w.on.Get(event)
}

func (w *Workflow) Permissions(p any) *Workflow {
	w.permissions = resolve(p)
	return w
}

// Env replaces the workflow environment. Keys render in sorted order.
func (w *Workflow) Env(vars map[string]any) *Workflow {
	w.env = putAll(vars)
	return w
}

// EnvVar adds one environment variable, keeping insertion order.
func (w *Workflow) EnvVar(name string, value any) *Workflow {
	w.env = putOne(w.env, name, value)
	return w
}

func (w *Workflow) Defaults(d Defaults) *Workflow {
	w.defaults = d
	return w
}

func (w *Workflow) Concurrency(c any) *Workflow {
	w.concurrency = resolve(c)
	return w
}

// Job adds or replaces a job. New ids are appended; replacing keeps the
// original position.
func (w *Workflow) Job(id string, job *Job) *Workflow {
	if job == nil {
		job = NewJob()
	}
	w.jobs.Set(id, job)
	return w
}

// JobFunc builds a job from a fresh Job and the ambient context.
func (w *Workflow) JobFunc(id string, build func(j *Job, c expr.Context) *Job) *Workflow {
	return w.Job(id, build(NewJob(), expr.Ctx))
}

// NamedJob pairs a job with its id for Jobs.
type NamedJob struct {
	ID  string
	Job *Job
}

// Named is shorthand for NamedJob{ID: id, Job: job}.
func Named(id string, job *Job) NamedJob { return NamedJob{ID: id, Job: job} }

// Jobs adds several jobs in the given order.
func (w *Workflow) Jobs(jobs ...NamedJob) *Workflow {
	for _, nj := range jobs {
		w.Job(nj.ID, nj.Job)
	}
	return w
}

// JobIDs returns job ids in order.
func (w *Workflow) JobIDs() []string {
	var out []string
	for pair := w.jobs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// GetJob returns the job with the given id.
func (w *Workflow) GetJob(id string) (*Job, bool) {
	return w.jobs.Get(id)
}

// Values returns the raw workflow-level values, for reference inspection.
func (w *Workflow) Values() []any {
	out := []any{w.concurrency, w.permissions}
	return append(out, mapValues(w.env)...)
}

// Render returns the workflow document. All job problems are collected
// into one aggregate error.
func (w *Workflow) Render() (*tree.Map, error) {
	res := &schema.ValidationResult{}
	m := w.render(res)
	return m, res.AsError(schema.ErrCodeStructural,
		fmt.Sprintf("invalid workflow configuration: %s", quoted(w.fileName)))
}

func (w *Workflow) render(res *schema.ValidationResult) *tree.Map {
	r := newRenderer("", res)
	if w.name == "" {
		r.fail("name", "workflow name is required")
	}
	if w.fileName == "" {
		r.fail("name", "workflow file name is empty")
	}
	r.out.Set("name", w.name)

	if w.on.Len() > 0 {
		on := tree.New()
		for pair := w.on.Oldest(); pair != nil; pair = pair.Next() {
			v, err := tree.Normalize(pair.Value)
			if err != nil {
				res.AddErr(join("on", pair.Key), schema.ErrCodeStructural, err)
				continue
			}
			if m, ok := v.(*tree.Map); v == nil || (ok && m.Len() == 0) {
				v = tree.Null
			}
			on.Set(pair.Key, v)
		}
		r.out.Set("on", on)
	}
	r.set("permissions", w.permissions)
	r.set("env", w.env)
	r.set("defaults", w.defaults)
	r.set("concurrency", w.concurrency)

	if w.jobs.Len() > 0 {
		jobs := tree.New()
		for pair := w.jobs.Oldest(); pair != nil; pair = pair.Next() {
			jobs.Set(pair.Key, pair.Value.render(join("jobs", pair.Key), res))
		}
		r.out.Set("jobs", jobs)
	}
	return r.out
}

func (w *Workflow) String() string {
	return fmt.Sprintf("Workflow { name: %q, file: %q }", w.name, w.fileName+".yml")
}
