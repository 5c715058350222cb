package diagram

import (
	"fmt"
	"strings"
)

// strokes darken the fills in statusFill for Mermaid class borders.
var statusStroke = map[string]string{
	StatusOK:      "#1a4a1a",
	StatusWarning: "#8a5c14",
	StatusError:   "#5c0e0e",
}

var (
	mermaidIDs    = strings.NewReplacer(".", "_", "-", "_", " ", "_")
	mermaidLabels = strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")
)

type mermaidWriter struct {
	b     strings.Builder
	kinds map[string]NodeKind
}

// RenderMermaid renders a DiagramModel as a Mermaid flowchart. Edges into
// reusable workflow calls are dashed. Steps are drawn as subgraphs when
// withSteps is set.
func RenderMermaid(model *DiagramModel, withSteps bool) string {
	w := &mermaidWriter{kinds: make(map[string]NodeKind, len(model.Nodes))}
	w.b.WriteString("graph TD\n")
	if model.Title != "" {
		w.line(1, "%%%% %s", model.Title)
	}

	for _, node := range model.Nodes {
		w.kinds[node.ID] = node.Kind
		w.line(1, "%s", mermaidNodeDef(node))
		if withSteps {
			w.steps(node)
		}
	}
	for _, edge := range model.Edges {
		w.edge(edge)
	}
	w.classes(model.Nodes)
	return w.b.String()
}

func (w *mermaidWriter) line(indent int, format string, args ...any) {
	w.b.WriteString(strings.Repeat("    ", indent))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *mermaidWriter) steps(node *Node) {
	for _, sg := range node.Children {
		w.line(1, `subgraph %s["%s: %s"]`,
			mermaidSafeID(node.ID+"_"+sg.Label), mermaidEscapeLabel(node.Label), sg.Label)
		for _, step := range sg.Nodes {
			w.line(2, "%s", mermaidNodeDef(step))
		}
		for _, e := range sg.Edges {
			w.line(2, "%s --> %s", mermaidSafeID(e.From), mermaidSafeID(e.To))
		}
		w.line(1, "end")
	}
}

func (w *mermaidWriter) edge(e Edge) {
	arrow := "-->"
	if w.kinds[e.To] == NodeKindCall {
		arrow = "-.->"
	}
	if e.Label != "" {
		arrow += "|" + mermaidEscapeLabel(e.Label) + "|"
	}
	w.line(1, "%s %s %s", mermaidSafeID(e.From), arrow, mermaidSafeID(e.To))
}

// classes colors nodes by lint status. Nothing is written when no node
// carries an overlay.
func (w *mermaidWriter) classes(nodes []*Node) {
	used := map[string][]string{}
	for _, node := range nodes {
		if node.Status == nil {
			continue
		}
		if _, ok := statusStroke[node.Status.Status]; ok {
			used[node.Status.Status] = append(used[node.Status.Status], mermaidSafeID(node.ID))
		}
	}
	if len(used) == 0 {
		return
	}
	w.b.WriteByte('\n')
	for _, status := range []string{StatusOK, StatusWarning, StatusError} {
		w.line(1, "classDef %s fill:%s,stroke:%s,color:#fff", status, statusFill[status], statusStroke[status])
	}
	for _, status := range []string{StatusOK, StatusWarning, StatusError} {
		for _, id := range used[status] {
			w.line(1, "class %s %s", id, status)
		}
	}
}

// mermaidNodeDef maps a node kind to a Mermaid shape.
func mermaidNodeDef(node *Node) string {
	label := mermaidEscapeLabel(firstLine(node.Label))
	if node.Detail != "" {
		label += "<br/>" + mermaidEscapeLabel(node.Detail)
	}

	left, right := `["`, `"]`
	switch node.Kind {
	case NodeKindMatrix:
		left, right = `[["`, `"]]`
	case NodeKindCall:
		left, right = `[/"`, `"/]`
	case NodeKindStart, NodeKindEnd:
		left, right = `(("`, `"))`
	}
	return mermaidSafeID(node.ID) + left + label + right
}

func mermaidSafeID(id string) string { return mermaidIDs.Replace(id) }

func mermaidEscapeLabel(s string) string { return mermaidLabels.Replace(s) }
