package tree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
)

type option struct{ Name string }

func (o option) TreeValue() (any, error) {
	m := New()
	m.Set("name", o.Name)
	m.Set("unset", nil)
	return m, nil
}

type label string

func TestNormalize_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "x", "x"},
		{"int", 3, 3},
		{"bool", false, false},
		{"expression", expr.Success(), "${{ success() }}"},
		{"path", expr.Ctx.Github.Key("sha"), "github.sha"},
		{"named string", label("ci"), "ci"},
		{"null", Null, Null},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Unset(t *testing.T) {
	var e *expr.Expression
	var opt *option
	var list []string
	for _, v := range []any{nil, e, opt, list} {
		got, err := Normalize(v)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestNormalize_MapsSortKeysAndDropUnset(t *testing.T) {
	got, err := Normalize(map[string]any{"b": 1, "a": "x", "c": nil})
	require.NoError(t, err)
	m := got.(*Map)
	assert.Equal(t, []string{"a", "b"}, Keys(m))
}

func TestNormalize_OrderedMapKeepsOrder(t *testing.T) {
	in := New()
	in.Set("z", 1)
	in.Set("a", expr.Always())
	got, err := Normalize(in)
	require.NoError(t, err)
	m := got.(*Map)
	assert.Equal(t, []string{"z", "a"}, Keys(m))
	v, _ := m.Get("a")
	assert.Equal(t, "${{ always() }}", v)
}

func TestNormalize_SliceAndValuer(t *testing.T) {
	got, err := Normalize([]any{option{Name: "n"}, nil, "s"})
	require.NoError(t, err)
	list := got.([]any)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"name"}, Keys(list[0].(*Map)))
	assert.True(t, IsNull(list[1]))
}

func TestNormalize_Unsupported(t *testing.T) {
	_, err := Normalize(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrStructural))
	assert.Contains(t, err.Error(), "ch:")
}

func TestPlain(t *testing.T) {
	m := New()
	m.Set("on", Null)
	m.Set("n", int64(2))
	m.Set("list", []any{"a", 1})
	plain := Plain(m).(map[string]any)
	assert.Nil(t, plain["on"])
	assert.Equal(t, 2, plain["n"])
	assert.Equal(t, []any{"a", 1}, plain["list"])
}

func TestLookup(t *testing.T) {
	inner := New()
	inner.Set("runs-on", "ubuntu-latest")
	m := New()
	m.Set("build", inner)

	v, ok := Lookup(m, "build", "runs-on")
	require.True(t, ok)
	assert.Equal(t, "ubuntu-latest", v)

	_, ok = Lookup(m, "build", "runs-on", "deeper")
	assert.False(t, ok)
}

func TestNullMarshalJSON(t *testing.T) {
	m := New()
	m.Set("push", Null)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"push":null}`, string(data))
}
