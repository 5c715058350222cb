package expr

import "strings"

// Operator is a binary comparison or logical operator.
type Operator string

const (
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpEq    Operator = "=="
	OpNotEq Operator = "!="
	OpAnd   Operator = "&&"
	OpOr    Operator = "||"
)

// Op renders lhs <operator> rhs with a single space on each side.
func Op(lhs any, op Operator, rhs any) *Expression {
	return Of(operand(lhs), " "+string(op)+" ", operand(rhs))
}

func Eq(lhs, rhs any) *Expression    { return Op(lhs, OpEq, rhs) }
func NotEq(lhs, rhs any) *Expression { return Op(lhs, OpNotEq, rhs) }
func Lt(lhs, rhs any) *Expression    { return Op(lhs, OpLt, rhs) }
func Lte(lhs, rhs any) *Expression   { return Op(lhs, OpLte, rhs) }
func Gt(lhs, rhs any) *Expression    { return Op(lhs, OpGt, rhs) }
func Gte(lhs, rhs any) *Expression   { return Op(lhs, OpGte, rhs) }

// And chains operands with &&. Operands are not grouped; use Group where
// precedence matters.
func And(first, second any, rest ...any) *Expression {
	return chain(OpAnd, first, second, rest)
}

// Or chains operands with ||.
func Or(first, second any, rest ...any) *Expression {
	return chain(OpOr, first, second, rest)
}

func chain(op Operator, first, second any, rest []any) *Expression {
	e := Op(first, op, second)
	for _, r := range rest {
		e.Add(" "+string(op)+" ", operand(r))
	}
	return e
}

// Not renders !x.
func Not(x any) *Expression {
	return Of("!", operand(x))
}

// Group renders (x).
func Group(x any) *Expression {
	return Of("(", operand(x), ")")
}

// Expr turns a single value into an expression, quoting strings.
func Expr(content any) *Expression {
	return Of(operand(content))
}

// call renders name(arg, arg, ...).
func call(name string, args ...any) *Expression {
	e := Of(name + "(")
	for i, a := range args {
		if i > 0 {
			e.Add(", ")
		}
		e.Add(operand(a))
	}
	return e.Add(")")
}

// Contains renders contains(search, item).
func Contains(search, item any) *Expression { return call("contains", search, item) }

// StartsWith renders startsWith(search, value).
func StartsWith(search, value any) *Expression { return call("startsWith", search, value) }

// EndsWith renders endsWith(search, value).
func EndsWith(search, value any) *Expression { return call("endsWith", search, value) }

// Format renders format(template, replacements...). Placeholders are {0},
// {1}, and so on.
func Format(template any, replacements ...any) *Expression {
	return call("format", append([]any{template}, replacements...)...)
}

// Join renders join(array) or join(array, separator) when a separator is
// given. Extra separators are ignored.
func Join(array any, separator ...any) *Expression {
	if len(separator) == 0 {
		return call("join", array)
	}
	return call("join", array, separator[0])
}

// ToJSON renders toJSON(value).
func ToJSON(value any) *Expression { return call("toJSON", value) }

// FromJSON renders fromJSON(value).
func FromJSON(value any) *Expression { return call("fromJSON", value) }

// HashFiles renders hashFiles(pattern, ...). At least one pattern is
// required.
func HashFiles(pattern string, more ...string) *Expression {
	args := make([]any, 0, 1+len(more))
	args = append(args, pattern)
	for _, m := range more {
		args = append(args, m)
	}
	return call("hashFiles", args...)
}

// Status check predicates.
func Always() *Expression    { return Raw("always()") }
func Success() *Expression   { return Raw("success()") }
func Failure() *Expression   { return Raw("failure()") }
func Cancelled() *Expression { return Raw("cancelled()") }

// Concat joins items into plain text. Go strings are kept as they are,
// every other item is wrapped on its own, so
// Concat("v", Ctx.Github.Key("sha")) is "v${{ github.sha }}".
func Concat(first, second any, rest ...any) string {
	var b strings.Builder
	for _, item := range append([]any{first, second}, rest...) {
		if s, ok := item.(string); ok {
			b.WriteString(s)
			continue
		}
		b.WriteString(Wrap(item))
	}
	return b.String()
}
