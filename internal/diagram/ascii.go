package diagram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const boxGap = 2

// RenderASCII renders a DiagramModel as a text diagram, one row of boxes
// per level joined by a connector bus. Steps are listed after the graph
// when withSteps is set.
func RenderASCII(model *DiagramModel, withSteps bool) string {
	var b strings.Builder

	if model.Title != "" {
		fmt.Fprintf(&b, "=== %s ===\n\n", model.Title)
	}

	byID := make(map[string]*Node, len(model.Nodes))
	for _, n := range model.Nodes {
		byID[n.ID] = n
	}

	var rows [][]asciiBox
	for _, level := range model.Levels {
		var row []asciiBox
		for _, id := range level {
			if node := byID[id]; node != nil {
				row = append(row, makeBox(node))
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	for i, row := range rows {
		writeRow(&b, row)
		if i < len(rows)-1 {
			writeBus(&b, row)
		}
	}

	if withSteps {
		for _, node := range model.Nodes {
			for _, sg := range node.Children {
				fmt.Fprintf(&b, "\n--- %s %s ---\n", node.ID, sg.Label)
				for i, step := range sg.Nodes {
					fmt.Fprintf(&b, "  %d. %s\n", i+1, firstLine(step.Label))
				}
			}
		}
	}
	return b.String()
}

// statusTag returns a short indicator for a lint status.
func statusTag(o *StatusOverlay) string {
	if o == nil {
		return ""
	}
	switch o.Status {
	case StatusOK:
		return "[OK]"
	case StatusWarning:
		return fmt.Sprintf("[WARN %d]", o.Warnings)
	case StatusError:
		return fmt.Sprintf("[ERR %d]", o.Errors)
	}
	return ""
}

type asciiBox struct {
	lines []string
	width int
}

func makeBox(node *Node) asciiBox {
	content := []string{firstLine(node.Label)}
	if node.Detail != "" {
		content = append(content, node.Detail)
	}
	if tag := statusTag(node.Status); tag != "" {
		content = append(content, tag)
	}

	inner := 0
	for _, line := range content {
		inner = max(inner, utf8.RuneCountInString(line))
	}

	edge := strings.Repeat("─", inner+2)
	box := asciiBox{width: inner + 4}
	box.lines = append(box.lines, "┌"+edge+"┐")
	for _, line := range content {
		pad := strings.Repeat(" ", inner-utf8.RuneCountInString(line))
		box.lines = append(box.lines, "│ "+line+pad+" │")
	}
	box.lines = append(box.lines, "└"+edge+"┘")
	return box
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func writeRow(b *strings.Builder, row []asciiBox) {
	height := 0
	for _, box := range row {
		height = max(height, len(box.lines))
	}
	blank := strings.Repeat(" ", boxGap)
	for line := 0; line < height; line++ {
		var sb strings.Builder
		for i, box := range row {
			if i > 0 {
				sb.WriteString(blank)
			}
			if line < len(box.lines) {
				sb.WriteString(box.lines[line])
			} else {
				sb.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteString(strings.TrimRight(sb.String(), " "))
		b.WriteByte('\n')
	}
}

// boxCenters returns the column under the middle of each box in a row.
func boxCenters(row []asciiBox) []int {
	centers := make([]int, len(row))
	offset := 0
	for i, box := range row {
		centers[i] = offset + box.width/2
		offset += box.width + boxGap
	}
	return centers
}

// writeBus joins every box of a row into a single arrow pointing at the
// next level.
func writeBus(b *strings.Builder, row []asciiBox) {
	centers := boxCenters(row)
	first, last := centers[0], centers[len(centers)-1]
	mid := (first + last) / 2

	drops := blankLine(last + 1)
	for _, c := range centers {
		drops[c] = '│'
	}
	b.WriteString(string(drops) + "\n")

	if len(centers) > 1 {
		bus := blankLine(last + 1)
		for col := first; col <= last; col++ {
			bus[col] = '─'
		}
		for _, c := range centers {
			bus[c] = '┴'
		}
		bus[first], bus[last] = '└', '┘'
		if bus[mid] == '┴' {
			bus[mid] = '┼'
		} else {
			bus[mid] = '┬'
		}
		b.WriteString(string(bus) + "\n")
	}

	arrow := blankLine(mid + 1)
	arrow[mid] = '▼'
	b.WriteString(string(arrow) + "\n")
}

func blankLine(n int) []rune {
	line := make([]rune, n)
	for i := range line {
		line[i] = ' '
	}
	return line
}
