package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme centralizes the terminal styling of command output.
type Theme struct {
	Added   lipgloss.Style
	Removed lipgloss.Style
	Hunk    lipgloss.Style
	Header  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	OK      lipgloss.Style
	Dim     lipgloss.Style

	plain bool
}

// newTheme builds the styles for w. A plain theme leaves text unchanged.
func newTheme(w io.Writer, plain bool) Theme {
	if plain {
		return Theme{plain: true}
	}
	r := lipgloss.NewRenderer(w)
	style := func() lipgloss.Style { return r.NewStyle() }
	return Theme{
		Added:   style().Foreground(lipgloss.Color("#00FF00")),
		Removed: style().Foreground(lipgloss.Color("#FF0000")),
		Hunk:    style().Foreground(lipgloss.Color("#61AFEF")),
		Header:  style().Bold(true),
		Error:   style().Bold(true).Foreground(lipgloss.Color("#FF0000")),
		Warning: style().Foreground(lipgloss.Color("#E5C07B")),
		OK:      style().Foreground(lipgloss.Color("#00FF00")),
		Dim:     style().Foreground(lipgloss.Color("#888888")),
	}
}

// Paint renders s with style unless the theme is plain.
func (t Theme) Paint(style lipgloss.Style, s string) string {
	if t.plain {
		return s
	}
	return style.Render(s)
}

// Diff colors a unified diff line by line.
func (t Theme) Diff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			body = t.Paint(t.Header, body)
		case strings.HasPrefix(body, "@@"):
			body = t.Paint(t.Hunk, body)
		case strings.HasPrefix(body, "+"):
			body = t.Paint(t.Added, body)
		case strings.HasPrefix(body, "-"):
			body = t.Paint(t.Removed, body)
		}
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}
