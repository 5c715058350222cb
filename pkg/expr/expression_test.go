package expr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Path ---

func TestPath_Immutable(t *testing.T) {
	base := NewPath("needs", "build")
	a := base.Key("outputs")
	b := base.Key("result")

	assert.Equal(t, "needs.build", base.String())
	assert.Equal(t, "needs.build.outputs", a.String())
	assert.Equal(t, "needs.build.result", b.String())
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, "needs", a.Root())
}

func TestPath_SegmentsCopy(t *testing.T) {
	p := NewPath("github", "sha")
	segs := p.Segments()
	segs[0] = "mutated"
	assert.Equal(t, "github.sha", p.String())
}

func TestPath_Equal(t *testing.T) {
	assert.True(t, Ctx.Matrix.Key("os").Equal(NewPath("matrix", "os")))
	assert.False(t, Ctx.Matrix.Key("os").Equal(NewPath("matrix")))
}

func TestPath_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]any{"p": Ctx.Github.Key("ref")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"github.ref"}`, string(data))
}

func TestContext_Helpers(t *testing.T) {
	c := NewContext()
	assert.Equal(t, "steps.build.outputs.version", c.StepOutput("build", "version").String())
	assert.Equal(t, "steps.test.outcome", c.StepOutcome("test").String())
	assert.Equal(t, "needs.setup.outputs.matrix", c.NeedsOutput("setup", "matrix").String())
	assert.Equal(t, "needs.setup.result", c.NeedsResult("setup").String())
	assert.Equal(t, "jobs.build.outputs.sha", c.JobOutput("build", "sha").String())
	assert.Equal(t, "matrix.node", c.MatrixValue("node").String())
	assert.Equal(t, "inputs.dry-run", c.Input("dry-run").String())
	assert.Equal(t, "secrets.NPM_TOKEN", c.Secret("NPM_TOKEN").String())
	assert.Equal(t, "env.CI", c.EnvVar("CI").String())
	assert.Equal(t, "vars.REGION", c.Var("REGION").String())
	assert.Equal(t, "github.event.pull_request.draft", c.Event("pull_request", "draft").String())
	assert.Len(t, Roots(), 12)
}

// --- Literal quoting ---

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "main", "'main'"},
		{"embedded quote", "it's", "'it''s'"},
		{"empty string", "", "''"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"nil", nil, "null"},
		{"path", Ctx.Github.Key("ref"), "github.ref"},
		{"expression", Raw("a && b"), "a && b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

// --- Expression ---

func TestExpression_ConcatenatesFragments(t *testing.T) {
	e := Of("a", Ctx.Github.Key("ref"), "b")
	assert.Equal(t, "agithub.refb", e.String())
}

func TestExpression_AddMutatesInPlace(t *testing.T) {
	e := Raw("x")
	same := e.Add(" == ", 1)
	assert.Same(t, e, same)
	assert.Equal(t, "x == 1", e.String())
}

func TestExpression_NilSafe(t *testing.T) {
	var e *Expression
	assert.Equal(t, "", e.String())
	assert.Nil(t, e.Paths())
}

func TestExpression_Wrap(t *testing.T) {
	e := Eq(Ctx.Github.Key("event_name"), "push")
	assert.Equal(t, "github.event_name == 'push'", e.String())
	assert.Equal(t, "${{ github.event_name == 'push' }}", e.Wrap())
}

func TestExpression_WrapNotIdempotent(t *testing.T) {
	once := Wrap(Ctx.Github.Key("sha"))
	assert.Equal(t, "${{ github.sha }}", once)
	assert.Equal(t, "${{ ${{ github.sha }} }}", Wrap(once))
	assert.Equal(t, "${{ ${{ github.sha }} }}", Wrap(Wrap(Ctx.Github.Key("sha"))))
}

func TestWrap_StringIsRawText(t *testing.T) {
	assert.Equal(t, "${{ github.sha }}", Wrap("github.sha"))
	assert.Equal(t, "${{ 'github.sha' }}", Wrap(Literal("github.sha")))
	assert.Equal(t, "${{ 3 }}", Wrap(3))
}

func TestExpression_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]any{"if": Success()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"if":"${{ success() }}"}`, string(data))
}

func TestExpression_Paths(t *testing.T) {
	e := And(Eq(Ctx.MatrixValue("os"), "linux"), Not(Ctx.StepOutput("a", "skip")))
	paths := e.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"matrix", "os"}, paths[0].Segments())
	assert.Equal(t, []string{"steps", "a", "outputs", "skip"}, paths[1].Segments())
}

// --- Operators and functions ---

func TestOperators(t *testing.T) {
	ref := Ctx.Github.Key("ref")
	tests := []struct {
		name string
		got  *Expression
		want string
	}{
		{"eq", Eq(ref, "refs/heads/main"), "github.ref == 'refs/heads/main'"},
		{"not eq", NotEq(ref, "x"), "github.ref != 'x'"},
		{"lt", Lt(Ctx.Inputs.Key("n"), 3), "inputs.n < 3"},
		{"lte", Lte(1, 2), "1 <= 2"},
		{"gt", Gt(2, 1), "2 > 1"},
		{"gte", Gte(2, 2), "2 >= 2"},
		{"and", And(true, false), "true && false"},
		{"and chain", And(Always(), Success(), Not(Cancelled())), "always() && success() && !cancelled()"},
		{"or", Or(Failure(), Eq(1, 1)), "failure() || 1 == 1"},
		{"not", Not(Ctx.Inputs.Key("dry")), "!inputs.dry"},
		{"group", Or(Group(And(1, 2)), 3), "(1 && 2) || 3"},
		{"contains", Contains(Ctx.Github.Key("labels"), "bug"), "contains(github.labels, 'bug')"},
		{"starts with", StartsWith(ref, "refs/tags/"), "startsWith(github.ref, 'refs/tags/')"},
		{"ends with", EndsWith(ref, "-rc"), "endsWith(github.ref, '-rc')"},
		{"format", Format("{0}-{1}", ref, 7), "format('{0}-{1}', github.ref, 7)"},
		{"join", Join(Ctx.Matrix.Key("list")), "join(matrix.list)"},
		{"join separator", Join(Ctx.Matrix.Key("list"), ", "), "join(matrix.list, ', ')"},
		{"to json", ToJSON(Ctx.Github), "toJSON(github)"},
		{"from json", FromJSON(Ctx.NeedsOutput("a", "m")), "fromJSON(needs.a.outputs.m)"},
		{"hash files", HashFiles("**/go.sum"), "hashFiles('**/go.sum')"},
		{"hash files many", HashFiles("a", "b"), "hashFiles('a', 'b')"},
		{"expr quotes", Expr("it's"), "'it''s'"},
		{"expr path", Expr(ref), "github.ref"},
		{"op", Op(1, OpLt, 2), "1 < 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.Equal(t, "always()", Always().String())
	assert.Equal(t, "success()", Success().String())
	assert.Equal(t, "failure()", Failure().String())
	assert.Equal(t, "cancelled()", Cancelled().String())
}

func TestConcat(t *testing.T) {
	got := Concat("release-", Ctx.Github.Key("sha"), " on ", Eq(Ctx.Github.Key("ref"), "main"))
	assert.Equal(t, "release-${{ github.sha }} on ${{ github.ref == 'main' }}", got)
}

func TestConcat_NonStringLiteralsAreWrapped(t *testing.T) {
	assert.Equal(t, "n=${{ 5 }}", Concat("n=", 5))
}
