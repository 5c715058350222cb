// Package commands renders runner workflow commands as shell lines.
//
// Each Command is one line of a step's run script. Commands that define a
// step output or a job environment variable remember the name so builders
// can track what a step produces.
package commands

import (
	"strconv"
	"strings"

	"github.com/rendis/wfkit/pkg/expr"
)

// Command is a single rendered directive line.
type Command struct {
	line   string
	output string
	env    string
}

func (c Command) String() string { return c.line }

// Output is the step output this command sets, or "".
func (c Command) Output() string { return c.output }

// Env is the environment variable this command exports, or "".
func (c Command) Env() string { return c.env }

func (c Command) MarshalText() ([]byte, error) { return []byte(c.line), nil }

// Raw wraps an arbitrary shell line.
func Raw(line string) Command { return Command{line: line} }

// AnnotationOptions locate a notice, warning or error annotation.
type AnnotationOptions struct {
	Title     string
	File      string
	Line      int
	EndLine   int
	Col       int
	EndColumn int
}

func (o AnnotationOptions) params() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	num := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	add("title", o.Title)
	add("file", o.File)
	add("line", num(o.Line))
	add("endLine", num(o.EndLine))
	add("col", num(o.Col))
	add("endColumn", num(o.EndColumn))
	return strings.Join(parts, ",")
}

// Debug is echo ::debug::<msg>.
func Debug(msg any) Command {
	return Command{line: "echo ::debug::" + text(msg)}
}

// Notice is echo ::notice <opts>::<msg>.
func Notice(msg any, opts ...AnnotationOptions) Command {
	return annotation("notice", msg, opts)
}

// Warning is echo ::warning <opts>::<msg>.
func Warning(msg any, opts ...AnnotationOptions) Command {
	return annotation("warning", msg, opts)
}

// Error is echo ::error <opts>::<msg>.
func Error(msg any, opts ...AnnotationOptions) Command {
	return annotation("error", msg, opts)
}

func annotation(level string, msg any, opts []AnnotationOptions) Command {
	head := "echo ::" + level
	if len(opts) > 0 {
		if p := opts[0].params(); p != "" {
			head += " " + p
		}
	}
	return Command{line: head + "::" + text(msg)}
}

// Mask is echo ::add-mask::<value>.
func Mask(value any) Command {
	return Command{line: "echo ::add-mask::" + text(value)}
}

// SetOutput appends name=value to the step output file.
func SetOutput(name string, value any) Command {
	return Command{
		line:   `echo "` + name + "=" + text(value) + `" >> $GITHUB_OUTPUT`,
		output: name,
	}
}

// SetEnv appends NAME=value to the job environment file, making it visible
// to every later step.
func SetEnv(name string, value any) Command {
	return Command{
		line: `echo "` + name + "=" + text(value) + `" >> $GITHUB_ENV`,
		env:  name,
	}
}

// AddPath prepends dir to PATH for later steps.
func AddPath(dir any) Command {
	return Command{line: `echo "` + text(dir) + `" >> $GITHUB_PATH`}
}

// Summary appends markdown to the job summary.
func Summary(markdown any) Command {
	return Command{line: `echo "` + text(markdown) + `" >> $GITHUB_STEP_SUMMARY`}
}

// Group brackets lines in a collapsible log group. Nested slices are
// flattened by the step builder.
func Group(title any, lines ...any) []any {
	out := make([]any, 0, len(lines)+2)
	out = append(out, Command{line: `echo "::group::` + text(title) + `"`})
	out = append(out, lines...)
	return append(out, Command{line: `echo "::endgroup::"`})
}

// text renders a message value: strings verbatim, expressions and paths as
// interpolations.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case Command:
		return x.line
	case *expr.Expression, expr.Pathlike:
		return expr.Wrap(x)
	case nil:
		return ""
	default:
		return expr.Literal(x)
	}
}
