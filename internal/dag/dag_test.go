package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// --- helpers ---

func job(needs ...string) *workflow.Job {
	return workflow.NewJob().RunsOn("ubuntu-latest").Needs(needs...).Step(workflow.Run("true"))
}

func wf(jobs ...workflow.NamedJob) *workflow.Workflow {
	return workflow.New("Graph").Jobs(jobs...)
}

// --- Parse ---

func TestParse_Linear(t *testing.T) {
	d, err := Parse(wf(
		workflow.Named("c", job("b")),
		workflow.Named("b", job("a")),
		workflow.Named("a", job()),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, d.Sorted)
	assert.Equal(t, []string{"a"}, d.Roots)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, d.Levels)
	assert.Equal(t, []string{"c", "b", "a"}, d.Order)
}

func TestParse_Diamond(t *testing.T) {
	d, err := Parse(wf(
		workflow.Named("setup", job()),
		workflow.Named("lint", job("setup")),
		workflow.Named("test", job("setup")),
		workflow.Named("release", job("lint", "test")),
	))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"setup"}, {"lint", "test"}, {"release"}}, d.Levels)
	assert.ElementsMatch(t, []string{"lint", "test"}, d.Reverse["setup"])
	assert.Equal(t, 2, d.Level("release"))
	assert.Equal(t, -1, d.Level("nope"))
}

func TestParse_IndependentRootsSorted(t *testing.T) {
	d, err := Parse(wf(workflow.Named("z", job()), workflow.Named("a", job())))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, d.Roots)
	assert.Len(t, d.Levels, 1)
}

func TestParse_UnknownNeedsRecorded(t *testing.T) {
	d, err := Parse(wf(workflow.Named("deploy", job("build", "ghost"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "ghost"}, d.Missing["deploy"])
	assert.Empty(t, d.Edges["deploy"])
}

func TestParse_DuplicateNeedsCollapsed(t *testing.T) {
	d, err := Parse(wf(workflow.Named("a", job()), workflow.Named("b", job("a", "a"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, d.Edges["b"])
}

func TestParse_SelfCycle(t *testing.T) {
	_, err := Parse(wf(workflow.Named("a", job("a"))))
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrCycle)
	assert.Contains(t, err.Error(), "needs itself")
}

func TestParse_Cycle(t *testing.T) {
	_, err := Parse(wf(
		workflow.Named("a", job("c")),
		workflow.Named("b", job("a")),
		workflow.Named("c", job("b")),
		workflow.Named("free", job()),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrCycle)

	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"a", "b", "c"}, se.Details["jobs"])
}

func TestParse_Empty(t *testing.T) {
	d, err := Parse(workflow.New("Empty"))
	require.NoError(t, err)
	assert.Empty(t, d.Sorted)
	assert.Nil(t, d.Levels)
}
