package workflow

import (
	"github.com/rendis/wfkit/pkg/tree"
)

func ordered(kv ...any) *tree.Map {
	m := tree.New()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func nonEmpty(list []string) any {
	if len(list) == 0 {
		return nil
	}
	return list
}

func nonZero[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}

// Permissions grants the workflow token per-scope access.
type Permissions struct {
	Actions            Access
	Attestations       Access
	Checks             Access
	Contents           Access
	Deployments        Access
	Discussions        Access
	IDToken            Access
	Issues             Access
	Packages           Access
	Pages              Access
	PullRequests       Access
	RepositoryProjects Access
	SecurityEvents     Access
	Statuses           Access
}

func (p Permissions) TreeValue() (any, error) {
	return ordered(
		"actions", nonZero(p.Actions),
		"attestations", nonZero(p.Attestations),
		"checks", nonZero(p.Checks),
		"contents", nonZero(p.Contents),
		"deployments", nonZero(p.Deployments),
		"discussions", nonZero(p.Discussions),
		"id-token", nonZero(p.IDToken),
		"issues", nonZero(p.Issues),
		"packages", nonZero(p.Packages),
		"pages", nonZero(p.Pages),
		"pull-requests", nonZero(p.PullRequests),
		"repository-projects", nonZero(p.RepositoryProjects),
		"security-events", nonZero(p.SecurityEvents),
		"statuses", nonZero(p.Statuses),
	), nil
}

// Environment names a deployment environment.
type Environment struct {
	Name any
	URL  any
}

func (e Environment) TreeValue() (any, error) {
	return ordered("name", resolve(e.Name), "url", resolve(e.URL)), nil
}

// Concurrency limits how many runs of a group execute at once.
type Concurrency struct {
	Group            any
	CancelInProgress any
}

func (c Concurrency) TreeValue() (any, error) {
	return ordered("group", resolve(c.Group), "cancel-in-progress", resolve(c.CancelInProgress)), nil
}

// Defaults apply to every run step in scope. A zero Defaults renders
// nothing.
type Defaults struct {
	Shell            any
	WorkingDirectory any
}

func (d Defaults) TreeValue() (any, error) {
	run, err := tree.Normalize(ordered("shell", resolve(d.Shell), "working-directory", resolve(d.WorkingDirectory)))
	if err != nil {
		return nil, err
	}
	if m, ok := run.(*tree.Map); !ok || m.Len() == 0 {
		return nil, nil
	}
	return ordered("run", run), nil
}

// RunsOn selects runners from a group and/or by labels.
type RunsOn struct {
	Group  string
	Labels []string
}

func (r RunsOn) TreeValue() (any, error) {
	return ordered("group", nonZero(r.Group), "labels", nonEmpty(r.Labels)), nil
}

// Credentials authenticate against a container registry.
type Credentials struct {
	Username any
	Password any
}

func (c Credentials) TreeValue() (any, error) {
	return ordered("username", resolve(c.Username), "password", resolve(c.Password)), nil
}

// Container describes a job container or a service container.
type Container struct {
	Image       any
	Credentials *Credentials
	Env         map[string]any
	Ports       []any
	Volumes     []string
	Options     string
}

func (c Container) TreeValue() (any, error) {
	var ports any
	if len(c.Ports) > 0 {
		ports = c.Ports
	}
	return ordered(
		"image", resolve(c.Image),
		"credentials", c.Credentials,
		"env", putAll(c.Env),
		"ports", ports,
		"volumes", nonEmpty(c.Volumes),
		"options", nonZero(c.Options),
	), nil
}

// Strategy configures matrix fan-out. Matrix is a *Matrix or an expression
// such as fromJSON(needs.setup.outputs.matrix).
type Strategy struct {
	Matrix      any
	FailFast    any
	MaxParallel any
}

func (s Strategy) TreeValue() (any, error) {
	return ordered(
		"matrix", resolve(s.Matrix),
		"fail-fast", resolve(s.FailFast),
		"max-parallel", resolve(s.MaxParallel),
	), nil
}

// Matrix is a set of named axes plus include/exclude rows. It renders
// verbatim; expansion happens on the runner.
type Matrix struct {
	axes    *tree.Map
	include []map[string]any
	exclude []map[string]any
}

// NewMatrix returns an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{axes: tree.New()}
}

// Axis adds or replaces an axis. Axes render in insertion order.
func (m *Matrix) Axis(name string, values ...any) *Matrix {
	m.axes.Set(name, values)
	return m
}

// Include adds a row merged into (or appended to) the combinations.
func (m *Matrix) Include(row map[string]any) *Matrix {
	m.include = append(m.include, row)
	return m
}

// Exclude removes combinations matching row.
func (m *Matrix) Exclude(row map[string]any) *Matrix {
	m.exclude = append(m.exclude, row)
	return m
}

// Axes returns the declared axis names plus keys introduced by include
// rows, in first-seen order.
func (m *Matrix) Axes() []string {
	seen := map[string]bool{}
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range tree.Keys(m.axes) {
		add(k)
	}
	for _, row := range m.include {
		for _, k := range tree.Keys(putAll(row)) {
			add(k)
		}
	}
	return out
}

func (m *Matrix) TreeValue() (any, error) {
	out := tree.New()
	for pair := m.axes.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	if len(m.exclude) > 0 {
		out.Set("exclude", m.exclude)
	}
	if len(m.include) > 0 {
		out.Set("include", m.include)
	}
	return out, nil
}
