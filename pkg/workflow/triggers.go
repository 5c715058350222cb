package workflow

import (
	"fmt"

	"github.com/rendis/wfkit/pkg/tree"
)

// PushOptions filter push events.
type PushOptions struct {
	Branches       []string
	BranchesIgnore []string
	Tags           []string
	TagsIgnore     []string
	Paths          []string
	PathsIgnore    []string
}

func (o PushOptions) TreeValue() (any, error) {
	return ordered(
		"branches", nonEmpty(o.Branches),
		"branches-ignore", nonEmpty(o.BranchesIgnore),
		"tags", nonEmpty(o.Tags),
		"tags-ignore", nonEmpty(o.TagsIgnore),
		"paths", nonEmpty(o.Paths),
		"paths-ignore", nonEmpty(o.PathsIgnore),
	), nil
}

// PullRequestOptions filter pull_request and pull_request_target events.
type PullRequestOptions struct {
	Types          []string
	Branches       []string
	BranchesIgnore []string
	Paths          []string
	PathsIgnore    []string
}

func (o PullRequestOptions) TreeValue() (any, error) {
	return ordered(
		"types", nonEmpty(o.Types),
		"branches", nonEmpty(o.Branches),
		"branches-ignore", nonEmpty(o.BranchesIgnore),
		"paths", nonEmpty(o.Paths),
		"paths-ignore", nonEmpty(o.PathsIgnore),
	), nil
}

// ActivityOptions filter events by activity type (release, issues, ...).
type ActivityOptions struct {
	Types []string
}

func (o ActivityOptions) TreeValue() (any, error) {
	return ordered("types", nonEmpty(o.Types)), nil
}

// Schedule is a list of cron expressions in UTC.
type Schedule []string

// Cron returns a schedule with one entry per cron expression.
func Cron(specs ...string) Schedule { return Schedule(specs) }

func (s Schedule) TreeValue() (any, error) {
	out := make([]any, 0, len(s))
	for _, spec := range s {
		out = append(out, ordered("cron", spec))
	}
	return out, nil
}

// InputType is the declared type of a dispatch or call input.
type InputType string

const (
	InputString      InputType = "string"
	InputBoolean     InputType = "boolean"
	InputNumber      InputType = "number"
	InputChoice      InputType = "choice"
	InputEnvironment InputType = "environment"
)

// Input declares a workflow_dispatch or workflow_call input. Options only
// apply to choice inputs of workflow_dispatch.
type Input struct {
	Name        string
	Description string
	Required    bool
	Default     any
	Type        InputType
	Options     []string
}

func (i Input) body() *tree.Map {
	return ordered(
		"description", nonZero(i.Description),
		"required", nonZero(i.Required),
		"default", resolve(i.Default),
		"type", nonZero(i.Type),
		"options", nonEmpty(i.Options),
	)
}

// Output declares a reusable workflow output.
type Output struct {
	Name        string
	Description string
	Value       any
}

// Secret declares a secret a reusable workflow accepts.
type Secret struct {
	Name        string
	Description string
	Required    bool
}

// WorkflowDispatchOptions declare manual trigger inputs.
type WorkflowDispatchOptions struct {
	Inputs []Input
}

func (o WorkflowDispatchOptions) TreeValue() (any, error) {
	inputs, err := namedInputs(o.Inputs)
	if err != nil {
		return nil, err
	}
	return ordered("inputs", inputs), nil
}

// WorkflowCallOptions declare the interface of a reusable workflow.
type WorkflowCallOptions struct {
	Inputs  []Input
	Outputs []Output
	Secrets []Secret
}

func (o WorkflowCallOptions) TreeValue() (any, error) {
	inputs, err := namedInputs(o.Inputs)
	if err != nil {
		return nil, err
	}
	var outputs, secrets *tree.Map
	for _, out := range o.Outputs {
		if outputs == nil {
			outputs = tree.New()
		}
		outputs.Set(out.Name, ordered("description", nonZero(out.Description), "value", resolve(out.Value)))
	}
	for _, s := range o.Secrets {
		if secrets == nil {
			secrets = tree.New()
		}
		secrets.Set(s.Name, ordered("description", nonZero(s.Description), "required", nonZero(s.Required)))
	}
	return ordered("inputs", inputs, "outputs", outputs, "secrets", secrets), nil
}

func namedInputs(inputs []Input) (*tree.Map, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	m := tree.New()
	for _, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("input without a name")
		}
		m.Set(in.Name, in.body())
	}
	return m, nil
}

// WorkflowRunOptions trigger on the completion of other workflows. Each
// entry of Workflows is a workflow name or a *Workflow; builders are
// resolved to their names when rendered.
type WorkflowRunOptions struct {
	Workflows []any
	Types     []string
	Branches  []string
}

func (o WorkflowRunOptions) TreeValue() (any, error) {
	var names []any
	for _, w := range o.Workflows {
		switch x := w.(type) {
		case *Workflow:
			names = append(names, x.DisplayName())
		case string:
			names = append(names, x)
		default:
			return nil, fmt.Errorf("workflow_run: unsupported workflow reference of type %T", w)
		}
	}
	return ordered("workflows", names, "types", nonEmpty(o.Types), "branches", nonEmpty(o.Branches)), nil
}
