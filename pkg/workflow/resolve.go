package workflow

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

// ContextFunc is a deferred value computed from the ambient context. Every
// setter that takes `any` also accepts a ContextFunc or a plain
// func(expr.Context) returning any, string, *expr.Expression or expr.Path;
// it is called immediately with expr.Ctx.
type ContextFunc func(c expr.Context) any

func resolve(v any) any {
	switch f := v.(type) {
	case ContextFunc:
		return f(expr.Ctx)
	case func(expr.Context) any:
		return f(expr.Ctx)
	case func(expr.Context) *expr.Expression:
		return f(expr.Ctx)
	case func(expr.Context) expr.Path:
		return f(expr.Ctx)
	case func(expr.Context) string:
		return f(expr.Ctx)
	}
	return v
}

// putAll returns a fresh map holding vars in sorted key order.
func putAll[V any](vars map[string]V) *tree.Map {
	if vars == nil {
		return nil
	}
	out := tree.New()
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		out.Set(k, resolve(any(vars[k])))
	}
	return out
}

// putOne sets key on m, allocating it on first use.
func putOne(m *tree.Map, key string, v any) *tree.Map {
	if m == nil {
		m = tree.New()
	}
	m.Set(key, resolve(v))
	return m
}

// renderer writes normalized values into an ordered map and records every
// failure instead of stopping at the first.
type renderer struct {
	path string
	out  *tree.Map
	res  *schema.ValidationResult
}

func newRenderer(path string, res *schema.ValidationResult) *renderer {
	return &renderer{path: path, out: tree.New(), res: res}
}

func (r *renderer) at(key string) string {
	return join(r.path, key)
}

func (r *renderer) set(key string, v any) {
	nv, err := tree.Normalize(v)
	if err != nil {
		r.res.AddErr(r.at(key), schema.ErrCodeStructural, err)
		return
	}
	if m, ok := nv.(*tree.Map); ok && m.Len() == 0 {
		return
	}
	if nv != nil {
		r.out.Set(key, nv)
	}
}

func (r *renderer) fail(key, format string, args ...any) {
	r.res.AddErrorf(r.at(key), schema.ErrCodeStructural, format, args...)
}

func join(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	case strings.HasPrefix(key, "["):
		return prefix + key
	}
	return prefix + "." + key
}

func quoted(s string) string { return fmt.Sprintf("'%s'", s) }
