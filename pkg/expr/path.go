// Package expr builds CI expression text from typed paths and operators.
//
// Nothing here evaluates anything: an Expression is an ordered list of
// fragments that renders to the textual expression language the CI runner
// evaluates at execution time.
package expr

import (
	"slices"
	"strings"
)

// Pathlike is anything that names a location in the runner's context tree.
// Any Pathlike can be used as an expression fragment.
type Pathlike interface {
	Segments() []string
}

// Path is an immutable dotted path such as needs.build.outputs.version.
// The zero value is the empty path.
type Path struct {
	segs []string
}

// NewPath returns the path made of segs.
func NewPath(segs ...string) Path {
	return Path{segs: slices.Clone(segs)}
}

// Key returns a new path with seg appended. The receiver is unchanged.
func (p Path) Key(seg string) Path {
	return p.Get(seg)
}

// Get returns a new path with segs appended. The receiver is unchanged.
func (p Path) Get(segs ...string) Path {
	out := make([]string, 0, len(p.segs)+len(segs))
	out = append(out, p.segs...)
	out = append(out, segs...)
	return Path{segs: out}
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	return slices.Clone(p.segs)
}

// Root returns the first segment, or "" for the empty path.
func (p Path) Root() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[0]
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segs) }

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Pathlike) bool {
	return slices.Equal(p.segs, other.Segments())
}

func (p Path) String() string {
	return strings.Join(p.segs, ".")
}

// MarshalText renders the dotted form. Paths serialize as plain text, not
// as interpolations; use Wrap for that.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Path) MarshalYAML() (any, error) {
	return p.String(), nil
}

func joinSegments(p Pathlike) string {
	return strings.Join(p.Segments(), ".")
}
