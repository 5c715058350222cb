package expr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Expression is an ordered sequence of fragments. A fragment is raw
// expression text, a Pathlike, or a nested *Expression; String concatenates
// them with no separator.
type Expression struct {
	frags []any
}

// Raw returns an expression made of verbatim expression text. No quoting
// is applied.
func Raw(text string) *Expression {
	return &Expression{frags: []any{text}}
}

// Of returns an expression from fragments. Go strings are taken verbatim.
func Of(frags ...any) *Expression {
	e := &Expression{}
	return e.Add(frags...)
}

// Add appends fragments in place and returns the receiver. Strings are
// raw text, Pathlike and *Expression values are kept as references and
// any other value is rendered as a literal.
func (e *Expression) Add(frags ...any) *Expression {
	for _, f := range frags {
		switch v := f.(type) {
		case nil:
			e.frags = append(e.frags, "null")
		case string, *Expression, Pathlike:
			e.frags = append(e.frags, v)
		default:
			e.frags = append(e.frags, Literal(v))
		}
	}
	return e
}

// String renders the raw expression content, without interpolation markers.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expression) write(b *strings.Builder) {
	if e == nil {
		return
	}
	for _, f := range e.frags {
		switch v := f.(type) {
		case string:
			b.WriteString(v)
		case *Expression:
			v.write(b)
		case Pathlike:
			b.WriteString(joinSegments(v))
		}
	}
}

// Wrap renders the expression as an interpolation: ${{ content }}.
func (e *Expression) Wrap() string {
	return "${{ " + e.String() + " }}"
}

// Paths returns every path referenced by the expression, depth first.
func (e *Expression) Paths() []Pathlike {
	if e == nil {
		return nil
	}
	var out []Pathlike
	for _, f := range e.frags {
		switch v := f.(type) {
		case *Expression:
			out = append(out, v.Paths()...)
		case Pathlike:
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON emits the wrapped form.
func (e *Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Wrap())
}

// MarshalYAML emits the wrapped form.
func (e *Expression) MarshalYAML() (any, error) {
	return e.Wrap(), nil
}

// Wrap renders any fragment as an interpolation. A Go string is raw
// expression text, so Wrap("github.sha") is ${{ github.sha }}; use
// Literal for a quoted string.
//
// Wrap is not idempotent: wrapping an already wrapped string produces
// nested markers, which the runner rejects.
func Wrap(content any) string {
	if e, ok := content.(*Expression); ok {
		return e.Wrap()
	}
	return Of(content).Wrap()
}

// Literal renders v as expression source. Strings are single-quoted with
// embedded quotes doubled; paths and expressions render bare.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case *Expression:
		return x.String()
	case Pathlike:
		return joinSegments(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return Literal(x.String())
	default:
		return fmt.Sprint(x)
	}
}

// operand turns an argument into a fragment: strings are quoted, everything
// else is kept as a reference or literal.
func operand(v any) any {
	switch x := v.(type) {
	case string:
		return Literal(x)
	case *Expression, Pathlike:
		return x
	default:
		return Literal(x)
	}
}
