package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/expr-lang/expr/parser"
)

const (
	openMarker  = "${{"
	closeMarker = "}}"
)

// reference is a context access chain such as needs.build.outputs.version.
type reference []string

func (r reference) String() string { return strings.Join(r, ".") }

var (
	errUnterminated = errors.New("unterminated ${{ expression")
	errNested       = errors.New("nested ${{ inside an expression; the value was wrapped twice")
)

// interpolations returns the bodies of every ${{ }} segment in s. A
// closing marker inside a quoted literal does not end the body.
func interpolations(s string) ([]string, error) {
	var out []string
	for {
		start := strings.Index(s, openMarker)
		if start < 0 {
			return out, nil
		}
		rest := s[start+len(openMarker):]
		end, err := closingMarker(rest)
		if err != nil {
			return out, err
		}
		out = append(out, strings.TrimSpace(rest[:end]))
		s = rest[end+len(closeMarker):]
	}
}

// closingMarker returns the offset of the }} that ends body, skipping
// single-quoted literals with '' escapes.
func closingMarker(body string) (int, error) {
	quoted := false
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\'':
			if quoted && i+1 < len(body) && body[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case quoted:
		case strings.HasPrefix(body[i:], closeMarker):
			return i, nil
		case strings.HasPrefix(body[i:], openMarker):
			return 0, errNested
		}
	}
	return 0, errUnterminated
}

// analyzeExpression checks the syntax of a workflow expression body and
// returns the context references it reads.
func analyzeExpression(src string) ([]reference, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("empty expression")
	}
	translated, refs, err := translate(src)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(translated); err != nil {
		return nil, syntaxError(err)
	}
	return refs, nil
}

// syntaxError keeps the first line of a parser error; the rest points
// into the translated source.
func syntaxError(err error) error {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return errors.New(strings.TrimSpace(msg))
}

// translate rewrites workflow expression syntax into expr-lang syntax:
// single-quoted literals become double-quoted, property access becomes
// index access (property names may contain hyphens or be keywords), and
// function names are prefixed so expr-lang operators such as contains do
// not clash with them.
func translate(src string) (string, []reference, error) {
	rs := []rune(src)
	var (
		b     strings.Builder
		refs  []reference
		chain reference
	)
	endChain := func() {
		if len(chain) > 0 {
			refs = append(refs, chain)
		}
		chain = nil
	}

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '\'':
			endChain()
			lit, next, err := readLiteral(rs, i)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(strconv.Quote(lit))
			i = next

		case isIdentStart(r):
			j := i
			for j < len(rs) && isIdentPart(rs[j]) {
				j++
			}
			ident := string(rs[i:j])
			endChain()
			switch {
			case nextNonSpace(rs, j) == '(':
				b.WriteString("call_" + strings.ReplaceAll(ident, "-", "_"))
			case ident == "true" || ident == "false" || ident == "null":
				b.WriteString(ident)
			default:
				b.WriteString(strings.ReplaceAll(ident, "-", "_"))
				chain = reference{ident}
			}
			i = j

		case r == '.' && i+1 < len(rs) && (rs[i+1] == '*' || isIdentPart(rs[i+1])):
			j := i + 1
			if rs[j] == '*' {
				j++
			} else {
				for j < len(rs) && isIdentPart(rs[j]) {
					j++
				}
			}
			seg := string(rs[i+1 : j])
			b.WriteString("[" + strconv.Quote(seg) + "]")
			if chain != nil {
				chain = append(chain, seg)
			}
			i = j

		case r == '[' && chain != nil:
			if seg, next, ok := literalIndex(rs, i); ok {
				b.WriteString("[" + strconv.Quote(seg) + "]")
				chain = append(chain, seg)
				i = next
				continue
			}
			endChain()
			b.WriteRune(r)
			i++

		case unicode.IsDigit(r):
			endChain()
			j := i
			for j < len(rs) && (isIdentPart(rs[j]) || rs[j] == '.') {
				j++
			}
			b.WriteString(string(rs[i:j]))
			i = j

		default:
			endChain()
			b.WriteRune(r)
			i++
		}
	}
	endChain()
	return b.String(), refs, nil
}

// readLiteral reads a single-quoted literal starting at rs[start]. Two
// quotes in a row stand for one.
func readLiteral(rs []rune, start int) (string, int, error) {
	var lit strings.Builder
	for j := start + 1; j < len(rs); j++ {
		if rs[j] != '\'' {
			lit.WriteRune(rs[j])
			continue
		}
		if j+1 < len(rs) && rs[j+1] == '\'' {
			lit.WriteRune('\'')
			j++
			continue
		}
		return lit.String(), j + 1, nil
	}
	return "", 0, fmt.Errorf("unterminated string literal at offset %d", start)
}

// literalIndex matches ['name'] at rs[start].
func literalIndex(rs []rune, start int) (string, int, bool) {
	j := skipSpace(rs, start+1)
	if j >= len(rs) || rs[j] != '\'' {
		return "", 0, false
	}
	lit, next, err := readLiteral(rs, j)
	if err != nil {
		return "", 0, false
	}
	next = skipSpace(rs, next)
	if next >= len(rs) || rs[next] != ']' {
		return "", 0, false
	}
	return lit, next + 1, true
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func nextNonSpace(rs []rune, i int) rune {
	i = skipSpace(rs, i)
	if i >= len(rs) {
		return 0
	}
	return rs[i]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
