package expr

// Context is the ambient tree of runner contexts. Each root is a Path that
// can be extended with Key or Get; the helpers cover the common shapes.
type Context struct {
	Github   Path
	Env      Path
	Vars     Path
	Job      Path
	Jobs     Path
	Steps    Path
	Runner   Path
	Secrets  Path
	Strategy Path
	Matrix   Path
	Needs    Path
	Inputs   Path
}

// NewContext builds the context tree.
func NewContext() Context {
	return Context{
		Github:   NewPath("github"),
		Env:      NewPath("env"),
		Vars:     NewPath("vars"),
		Job:      NewPath("job"),
		Jobs:     NewPath("jobs"),
		Steps:    NewPath("steps"),
		Runner:   NewPath("runner"),
		Secrets:  NewPath("secrets"),
		Strategy: NewPath("strategy"),
		Matrix:   NewPath("matrix"),
		Needs:    NewPath("needs"),
		Inputs:   NewPath("inputs"),
	}
}

// Ctx is the default context handed to deferred builder callbacks.
var Ctx = NewContext()

// Roots lists the names of every context root.
func Roots() []string {
	return []string{"github", "env", "vars", "job", "jobs", "steps", "runner",
		"secrets", "strategy", "matrix", "needs", "inputs"}
}

// StepOutput is steps.<id>.outputs.<name>.
func (c Context) StepOutput(id, name string) Path { return c.Steps.Get(id, "outputs", name) }

// StepOutcome is steps.<id>.outcome.
func (c Context) StepOutcome(id string) Path { return c.Steps.Get(id, "outcome") }

// StepConclusion is steps.<id>.conclusion.
func (c Context) StepConclusion(id string) Path { return c.Steps.Get(id, "conclusion") }

// NeedsOutput is needs.<job>.outputs.<name>.
func (c Context) NeedsOutput(job, name string) Path { return c.Needs.Get(job, "outputs", name) }

// NeedsResult is needs.<job>.result.
func (c Context) NeedsResult(job string) Path { return c.Needs.Get(job, "result") }

// JobOutput is jobs.<job>.outputs.<name>, valid in reusable workflow outputs.
func (c Context) JobOutput(job, name string) Path { return c.Jobs.Get(job, "outputs", name) }

// MatrixValue is matrix.<axis>.
func (c Context) MatrixValue(axis string) Path { return c.Matrix.Key(axis) }

// Input is inputs.<name>.
func (c Context) Input(name string) Path { return c.Inputs.Key(name) }

// Secret is secrets.<name>.
func (c Context) Secret(name string) Path { return c.Secrets.Key(name) }

// EnvVar is env.<name>.
func (c Context) EnvVar(name string) Path { return c.Env.Key(name) }

// Var is vars.<name>.
func (c Context) Var(name string) Path { return c.Vars.Key(name) }

// Event is github.event.<segs...>.
func (c Context) Event(segs ...string) Path {
	return c.Github.Get(append([]string{"event"}, segs...)...)
}
