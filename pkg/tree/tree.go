// Package tree holds the ordered, plain-data form every builder renders to.
//
// A rendered tree contains only *Map, []any, string, bool, numeric values
// and Null. Key order is the order of insertion.
package tree

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rendis/wfkit/pkg/expr"
	"github.com/rendis/wfkit/pkg/schema"
)

// Map is an insertion-ordered string-keyed mapping.
type Map = orderedmap.OrderedMap[string, any]

// New returns an empty Map.
func New() *Map {
	return orderedmap.New[string, any]()
}

type null struct{}

func (null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (null) String() string { return "null" }

// Null is an explicit null leaf. A nil value means "unset" and is dropped;
// Null is kept and rendered as null.
var Null any = null{}

// IsNull reports whether v is the Null leaf.
func IsNull(v any) bool {
	_, ok := v.(null)
	return ok
}

// Valuer is implemented by option types that know their own rendered shape.
// The returned value is normalized again, so it may contain expressions.
type Valuer interface {
	TreeValue() (any, error)
}

// Normalize converts a builder value into rendered plain data. It returns
// (nil, nil) for unset values.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case null:
		return Null, nil
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return x, nil
	case json.Number:
		return x.String(), nil
	case *expr.Expression:
		if x == nil {
			return nil, nil
		}
		return x.Wrap(), nil
	case expr.Path:
		return x.String(), nil
	case Valuer:
		if isNilPointer(x) {
			return nil, nil
		}
		inner, err := x.TreeValue()
		if err != nil {
			return nil, err
		}
		return Normalize(inner)
	case *Map:
		if x == nil {
			return nil, nil
		}
		out := New()
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			nv, err := Normalize(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			if nv != nil {
				out.Set(pair.Key, nv)
			}
		}
		return out, nil
	case expr.Pathlike:
		return expr.Literal(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if nv == nil {
				nv = Null
			}
			out = append(out, nv)
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, unsupported(rv)
		}
		if rv.IsNil() {
			return nil, nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := New()
		for _, k := range keys {
			nv, err := Normalize(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if nv != nil {
				out.Set(k, nv)
			}
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, unsupported(rv)
}

func unsupported(rv reflect.Value) error {
	return schema.NewErrorf(schema.ErrCodeStructural, "unsupported value of type %s", rv.Type())
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Plain converts a rendered tree into map[string]any / []any values, the
// shape JSON decoders and jq engines expect. Key order is lost.
func Plain(v any) any {
	switch x := v.(type) {
	case *Map:
		out := make(map[string]any, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = Plain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Plain(item)
		}
		return out
	case null:
		return nil
	case string, bool, int, float64:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	}
	return v
}

// Lookup walks a rendered tree by keys and returns the value found.
func Lookup(m *Map, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(*Map)
		if !ok || mm == nil {
			return nil, false
		}
		cur, ok = mm.Get(k)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Keys returns the keys of m in order.
func Keys(m *Map) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
