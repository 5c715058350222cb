package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

func aggregate(t *testing.T, err error) *schema.AggregateError {
	t.Helper()
	require.Error(t, err)
	var agg *schema.AggregateError
	require.ErrorAs(t, err, &agg)
	return agg
}

// --- Rendering ---

func TestJob_RenderStepsJob(t *testing.T) {
	j := NewJob().
		Name("Build").
		RunsOn(RunnerUbuntuLatest).
		Needs("lint").
		TimeoutMinutes(10).
		Step(Uses("actions/checkout@v4"))

	m, err := j.Render()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "needs", "runs-on", "timeout-minutes", "steps"}, tree.Keys(m))
	assert.Equal(t, "lint", get(t, m, "needs"))
	steps := get(t, m, "steps").([]any)
	require.Len(t, steps, 1)
	assert.Equal(t, "actions/checkout@v4", get(t, steps[0].(*tree.Map), "uses"))
}

func TestJob_NeedsList(t *testing.T) {
	m, err := NewJob().RunsOn("x").Needs("a", "b").Step(Run("true")).Render()
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, get(t, m, "needs"))
}

func TestJob_FullKeyOrder(t *testing.T) {
	j := NewJob().
		Service("redis", Container{Image: "redis:7"}).
		Container("node:20").
		ContinueOnError(true).
		MaxParallel(2).
		Strategy(Strategy{Matrix: NewMatrix().Axis("go", "1.24", "1.25")}).
		TimeoutMinutes(30).
		Defaults(Defaults{Shell: ShellBash}).
		EnvVar("CI", "true").
		Output("sha", expr.Ctx.StepOutput("rev", "sha")).
		Concurrency("build").
		Environment(Environment{Name: "staging"}).
		RunsOn(RunnerUbuntuLatest).
		If(expr.Always()).
		Needs("setup").
		Permissions(Permissions{Contents: AccessRead}).
		Name("All").
		Step(Run("make").ID("rev"))

	m, err := j.Render()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"name", "permissions", "needs", "if", "runs-on", "environment", "concurrency",
		"outputs", "env", "defaults", "timeout-minutes", "strategy", "max-parallel",
		"continue-on-error", "container", "services", "steps",
	}, tree.Keys(m))
	assert.Equal(t, ShellBash, get(t, m, "defaults", "run", "shell"))
	assert.Equal(t, "read", get(t, m, "permissions", "contents"))
	assert.Equal(t, "redis:7", get(t, m, "services", "redis", "image"))
}

func TestJob_ReusableCall(t *testing.T) {
	callee := New("Reusable Build")
	m, err := NewJob().
		Uses(callee).
		Input("target", "linux").
		Secrets(SecretsInherit).
		Render()
	require.NoError(t, err)
	assert.Equal(t, []string{"uses", "with", "secrets"}, tree.Keys(m))
	assert.Equal(t, "./.github/workflows/reusable-build.yml", get(t, m, "uses"))
	assert.Equal(t, "inherit", get(t, m, "secrets"))
}

func TestJob_SecretsMap(t *testing.T) {
	m, err := NewJob().Uses("org/repo/.github/workflows/x.yml@main").
		Secrets(map[string]any{"token": expr.Expr(expr.Ctx.Secret("GH_TOKEN"))}).
		Render()
	require.NoError(t, err)
	assert.Equal(t, "${{ secrets.GH_TOKEN }}", get(t, m, "secrets", "token"))
}

func TestJob_Permissions(t *testing.T) {
	m, err := NewJob().Uses("./x.yml").Permissions(PermissionsReadAll).Render()
	require.NoError(t, err)
	assert.Equal(t, "read-all", get(t, m, "permissions"))

	m, err = NewJob().Uses("./x.yml").Permissions(PermissionsWriteAll).Permissions(nil).Render()
	require.NoError(t, err)
	_, ok := m.Get("permissions")
	assert.False(t, ok, "nil clears permissions")

	m, err = NewJob().Uses("./x.yml").Permissions(Permissions{IDToken: AccessWrite, Contents: AccessRead}).Render()
	require.NoError(t, err)
	assert.Equal(t, []string{"contents", "id-token"}, tree.Keys(get(t, m, "permissions").(*tree.Map)))
}

func TestJob_EnvironmentAndConcurrency(t *testing.T) {
	m, err := NewJob().Uses("./x.yml").
		Environment(Environment{Name: "prod", URL: expr.Expr(expr.Ctx.StepOutput("deploy", "url"))}).
		Concurrency(Concurrency{Group: expr.Concat("deploy-", expr.Ctx.Github.Key("ref")), CancelInProgress: true}).
		Render()
	require.NoError(t, err)
	assert.Equal(t, "${{ steps.deploy.outputs.url }}", get(t, m, "environment", "url"))
	assert.Equal(t, "deploy-${{ github.ref }}", get(t, m, "concurrency", "group"))
	assert.Equal(t, true, get(t, m, "concurrency", "cancel-in-progress"))
}

func TestJob_Matrix(t *testing.T) {
	j := NewJob().
		RunsOn(expr.Expr(expr.Ctx.MatrixValue("os"))).
		Strategy(Strategy{
			Matrix: NewMatrix().
				Axis("os", RunnerUbuntuLatest, RunnerMacOSLatest).
				Axis("node", 18, 20).
				Exclude(map[string]any{"os": RunnerMacOSLatest, "node": 18}).
				Include(map[string]any{"os": RunnerUbuntuLatest, "experimental": true}),
			FailFast: false,
		}).
		Step(Run("npm test"))

	m, err := j.Render()
	require.NoError(t, err)
	assert.Equal(t, "${{ matrix.os }}", get(t, m, "runs-on"))
	matrix := get(t, m, "strategy", "matrix").(*tree.Map)
	assert.Equal(t, []string{"os", "node", "exclude", "include"}, tree.Keys(matrix))
	assert.Equal(t, []any{18, 20}, get(t, matrix, "node"))
	assert.Equal(t, false, get(t, m, "strategy", "fail-fast"))
	assert.Equal(t, []string{"os", "node", "experimental"}, j.MatrixAxes())
	assert.True(t, j.HasStaticMatrix())
}

func TestJob_MatrixFromExpression(t *testing.T) {
	j := NewJob().RunsOn("x").
		Matrix(expr.Expr(expr.FromJSON(expr.Ctx.NeedsOutput("setup", "matrix")))).
		Step(Run("true"))
	m, err := j.Render()
	require.NoError(t, err)
	assert.Equal(t, "${{ fromJSON(needs.setup.outputs.matrix) }}", get(t, m, "strategy", "matrix"))
	assert.Nil(t, j.MatrixAxes())
	assert.False(t, j.HasStaticMatrix())
}

func TestJob_ContainerOptions(t *testing.T) {
	m, err := NewJob().RunsOn("x").
		Container(Container{
			Image:       "ghcr.io/org/img:1",
			Credentials: &Credentials{Username: "bot", Password: expr.Expr(expr.Ctx.Secret("PAT"))},
			Env:         map[string]any{"B": 1, "A": 2},
			Ports:       []any{80, "443:443"},
			Options:     "--cpus 1",
		}).
		Step(Run("true")).
		Render()
	require.NoError(t, err)
	c := get(t, m, "container").(*tree.Map)
	assert.Equal(t, []string{"image", "credentials", "env", "ports", "options"}, tree.Keys(c))
	assert.Equal(t, []string{"A", "B"}, tree.Keys(get(t, c, "env").(*tree.Map)))
	assert.Equal(t, "${{ secrets.PAT }}", get(t, c, "credentials", "password"))
}

// --- Validation ---

func TestJob_MissingRunsOn(t *testing.T) {
	_, err := NewJob().Name("build").Step(Run("make")).Render()
	agg := aggregate(t, err)
	assert.ErrorIs(t, err, schema.ErrStructural)
	require.Len(t, agg.Errors, 1)
	assert.Contains(t, agg.Errors[0].Error(), "runs-on")
	assert.Contains(t, err.Error(), "invalid job configuration: 'build'")
}

func TestJob_EmptyRunsOnList(t *testing.T) {
	_, err := NewJob().RunsOn([]string{}).Step(Run("make")).Render()
	agg := aggregate(t, err)
	require.Len(t, agg.Errors, 1)
	assert.Contains(t, agg.Errors[0].Error(), "runs-on")
}

func TestJob_NeitherStepsNorUses(t *testing.T) {
	_, err := NewJob().RunsOn(RunnerUbuntuLatest).Render()
	agg := aggregate(t, err)
	require.Len(t, agg.Errors, 1)
	assert.Contains(t, agg.Errors[0].Error(), "requires either 'steps' or a 'uses' property")
}

func TestJob_BothStepsAndUses(t *testing.T) {
	_, err := NewJob().RunsOn("x").Uses("./.github/workflows/a.yml").Step(Run("make")).Render()
	agg := aggregate(t, err)
	require.Len(t, agg.Errors, 1)
	assert.Contains(t, agg.Errors[0].Error(), "mutually exclusive")
}

func TestJob_CollectsAllViolations(t *testing.T) {
	j := NewJob().Steps(
		Run("a").ID("same"),
		Run("b", 3.5).ID("same"),
	)
	_, err := j.Render()
	agg := aggregate(t, err)
	require.Len(t, agg.Errors, 3, "runs-on, duplicate id and run line")

	var paths []string
	for _, e := range agg.Errors {
		paths = append(paths, e.(*schema.Error).Path)
	}
	assert.Contains(t, paths, "runs-on")
	assert.Contains(t, paths, "steps[1].id")
	assert.Contains(t, paths, "steps[1].run")
}

// --- Bookkeeping ---

func TestJob_Bookkeeping(t *testing.T) {
	j := NewJob().
		Needs("a", "b").
		Output("x", 1).
		Output("y", 2).
		Steps(Run("1").ID("one"), Run("2"), Run("3").ID("three"))

	assert.Equal(t, []string{"a", "b"}, j.NeedsIDs())
	assert.Equal(t, []string{"x", "y"}, j.OutputNames())
	assert.Equal(t, []string{"one", "three"}, j.StepIDs())
	assert.Len(t, j.StepList(), 3)
}
