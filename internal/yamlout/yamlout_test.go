package yamlout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/tree"
)

func sample() *tree.Map {
	steps := tree.New()
	steps.Set("run", "make\nmake test")
	job := tree.New()
	job.Set("runs-on", "ubuntu-latest")
	job.Set("timeout-minutes", 10)
	job.Set("steps", []any{steps})
	jobs := tree.New()
	jobs.Set("build", job)
	on := tree.New()
	on.Set("push", tree.Null)
	m := tree.New()
	m.Set("name", "CI")
	m.Set("on", on)
	m.Set("jobs", jobs)
	return m
}

func TestMarshal_KeyOrderAndScalars(t *testing.T) {
	out, err := Marshal(sample())
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "name: CI\n")
	assert.Contains(t, s, "push: null\n")
	assert.Contains(t, s, "timeout-minutes: 10\n")
	assert.Contains(t, s, "run: |-\n")
	assert.Less(t, indexOf(s, "name:"), indexOf(s, "on:"))
	assert.Less(t, indexOf(s, "on:"), indexOf(s, "jobs:"))
}

func TestMarshal_QuotesAmbiguousStrings(t *testing.T) {
	m := tree.New()
	m.Set("a", "true")
	m.Set("b", "10")
	m.Set("c", true)
	out, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "a: \"true\"\nb: \"10\"\nc: true\n", string(out))
}

func TestMarshal_QuotesYAML11Booleans(t *testing.T) {
	env := tree.New()
	env.Set("on", "yes")
	env.Set("OFF", "Off")
	env.Set("mode", "onward")
	m := tree.New()
	m.Set("env", env)
	m.Set("list", []any{"N", "no-op"})
	out, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "env:\n  on: \"yes\"\n  OFF: \"Off\"\n  mode: onward\nlist:\n  - \"N\"\n  - no-op\n", string(out))
}

func TestNormalize_QuotesYAML11Booleans(t *testing.T) {
	want, err := Marshal(func() *tree.Map {
		m := tree.New()
		m.Set("a", "yes")
		return m
	}())
	require.NoError(t, err)

	for _, src := range []string{"a: yes\n", "a: 'yes'\n", "a: \"yes\"\n"} {
		norm, err := Normalize([]byte(src))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(norm), src)
	}
}

func TestMarshal_Expressions(t *testing.T) {
	m := tree.New()
	m.Set("if", "${{ github.ref == 'refs/heads/main' }}")
	out, err := Marshal(m)
	require.NoError(t, err)

	back, err := Normalize(out)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(back))
}

func TestNormalize_RoundTripStable(t *testing.T) {
	out, err := Marshal(sample())
	require.NoError(t, err)

	withComments := append([]byte("# generated\n# do not edit\n\n"), out...)
	norm, err := Normalize(withComments)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(norm))
}

func TestNormalize_Empty(t *testing.T) {
	out, err := Normalize([]byte(""))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize([]byte("a: [unclosed"))
	assert.Error(t, err)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
