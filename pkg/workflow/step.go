package workflow

import (
	"fmt"
	"strings"

	"github.com/rendis/wfkit/pkg/commands"
	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

// Step is one unit of a job: either an action invocation (Uses) or a shell
// script (Run). Setters mutate the step and return it for chaining.
type Step struct {
	id               string
	cond             any
	name             any
	uses             string
	run              []string
	shell            any
	workingDirectory any
	with             *tree.Map
	env              *tree.Map
	continueOnError  any
	timeoutMinutes   any

	outputs []string
	hoisted []string
	issues  []string
	refs    []any
}

// NewStep returns an empty step.
func NewStep() *Step {
	return &Step{}
}

// Uses is shorthand for NewStep().Uses(action).
func Uses(action string) *Step {
	return NewStep().Uses(action)
}

// Run is shorthand for NewStep().Run(lines...).
func Run(lines ...any) *Step {
	return NewStep().Run(lines...)
}

// ID sets the identifier other steps use to read this step's outputs.
func (s *Step) ID(id string) *Step {
	s.id = id
	return s
}

// If sets the step condition. Strings are kept verbatim.
func (s *Step) If(cond any) *Step {
	s.cond = resolve(cond)
	return s
}

func (s *Step) Name(name any) *Step {
	s.name = resolve(name)
	return s
}

// Uses sets the action reference, e.g. actions/checkout@v4.
func (s *Step) Uses(action string) *Step {
	s.uses = action
	return s
}

// Run replaces the script. Lines may be strings, commands, expressions or
// slices of those; they are joined with newlines.
func (s *Step) Run(lines ...any) *Step {
	s.run, s.outputs, s.hoisted, s.issues, s.refs = nil, nil, nil, nil, nil
	for _, l := range lines {
		s.addLine(resolve(l))
	}
	return s
}

func (s *Step) addLine(v any) {
	switch x := v.(type) {
	case nil:
	case string:
		s.run = append(s.run, x)
	case commands.Command:
		s.run = append(s.run, x.String())
		if x.Output() != "" {
			s.outputs = append(s.outputs, x.Output())
		}
		if x.Env() != "" {
			s.hoisted = append(s.hoisted, x.Env())
		}
	case *expr.Expression, expr.Pathlike:
		s.refs = append(s.refs, x)
		s.run = append(s.run, expr.Wrap(x))
	case []any:
		for _, item := range x {
			s.addLine(item)
		}
	case []string:
		s.run = append(s.run, x...)
	case []commands.Command:
		for _, c := range x {
			s.addLine(c)
		}
	case fmt.Stringer:
		s.run = append(s.run, x.String())
	default:
		s.issues = append(s.issues, fmt.Sprintf("unsupported run line of type %T", v))
	}
}

func (s *Step) Shell(shell any) *Step {
	s.shell = resolve(shell)
	return s
}

func (s *Step) WorkingDirectory(dir any) *Step {
	s.workingDirectory = resolve(dir)
	return s
}

// With replaces the action inputs. Keys render in sorted order.
func (s *Step) With(inputs map[string]any) *Step {
	s.with = putAll(inputs)
	return s
}

// Input adds one action input, keeping insertion order.
func (s *Step) Input(name string, value any) *Step {
	s.with = putOne(s.with, name, value)
	return s
}

// Env replaces the step environment. Keys render in sorted order.
func (s *Step) Env(vars map[string]any) *Step {
	s.env = putAll(vars)
	return s
}

// EnvVar adds one environment variable, keeping insertion order.
func (s *Step) EnvVar(name string, value any) *Step {
	s.env = putOne(s.env, name, value)
	return s
}

func (s *Step) ContinueOnError(v any) *Step {
	s.continueOnError = resolve(v)
	return s
}

func (s *Step) TimeoutMinutes(v any) *Step {
	s.timeoutMinutes = resolve(v)
	return s
}

// Identifier returns the step id, or "".
func (s *Step) Identifier() string { return s.id }

// ActionRef returns the action reference, or "".
func (s *Step) ActionRef() string { return s.uses }

// Outputs lists the output names set by commands in the script.
func (s *Step) Outputs() []string { return append([]string(nil), s.outputs...) }

// HoistedEnv lists environment variables the script exports to later steps.
func (s *Step) HoistedEnv() []string { return append([]string(nil), s.hoisted...) }

// Label is a short human name: the plain-string name, else the id, the
// action reference or the first script line.
func (s *Step) Label() string {
	if name, ok := s.name.(string); ok && name != "" {
		return name
	}
	switch {
	case s.id != "":
		return s.id
	case s.uses != "":
		return s.uses
	case len(s.run) > 0:
		line, _, _ := strings.Cut(s.run[0], "\n")
		return line
	}
	return ""
}

// Values returns the raw configured values, for reference inspection.
func (s *Step) Values() []any {
	out := []any{s.cond, s.name, s.shell, s.workingDirectory, s.continueOnError, s.timeoutMinutes}
	out = append(out, s.refs...)
	return append(out, mapValues(s.with, s.env)...)
}

// Render returns the step in its fixed key order.
func (s *Step) Render() (*tree.Map, error) {
	res := &schema.ValidationResult{}
	m := s.render("", res)
	return m, res.AsError(schema.ErrCodeStructural, "invalid step configuration: "+s.String())
}

func (s *Step) render(path string, res *schema.ValidationResult) *tree.Map {
	r := newRenderer(path, res)
	r.set("if", s.cond)
	if s.id != "" {
		r.set("id", s.id)
	}
	r.set("name", s.name)
	if s.uses != "" {
		r.set("uses", s.uses)
	}
	if len(s.run) > 0 {
		r.set("run", strings.Join(s.run, "\n"))
	}
	r.set("shell", s.shell)
	r.set("working-directory", s.workingDirectory)
	r.set("with", s.with)
	r.set("env", s.env)
	r.set("continue-on-error", s.continueOnError)
	r.set("timeout-minutes", s.timeoutMinutes)
	for _, issue := range s.issues {
		r.fail("run", "%s", issue)
	}
	return r.out
}

// String is a short debugging form: Step { id: "a", name: "b" }.
func (s *Step) String() string {
	var parts []string
	if s.id != "" {
		parts = append(parts, fmt.Sprintf("id: %q", s.id))
	}
	if s.name != nil {
		parts = append(parts, fmt.Sprintf("name: %q", fmt.Sprint(s.name)))
	}
	if len(parts) == 0 {
		return "Step {}"
	}
	return "Step { " + strings.Join(parts, ", ") + " }"
}

func mapValues(maps ...*tree.Map) []any {
	var out []any
	for _, m := range maps {
		if m == nil {
			continue
		}
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, pair.Value)
		}
	}
	return out
}
