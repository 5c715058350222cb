package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// Fill colors per lint status.
var statusFill = map[string]string{
	StatusOK:      "#2d6a2d",
	StatusWarning: "#b7791a",
	StatusError:   "#8b1a1a",
}

// RenderImage renders the job graph as a PNG. With withSteps each job
// box lists its steps below the job label.
func RenderImage(ctx context.Context, model *DiagramModel, withSteps bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("diagram: create graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("diagram: create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)
	if model.Title != "" {
		graph.SetLabel(model.Title)
	}

	kinds := make(map[string]NodeKind, len(model.Nodes))
	gvNodes := make(map[string]*cgraph.Node, len(model.Nodes))
	for _, node := range model.Nodes {
		gvNode, err := graph.CreateNodeByName(node.ID)
		if err != nil {
			return nil, fmt.Errorf("diagram: create node %s: %w", node.ID, err)
		}
		gvNode.SetLabel(imageLabel(node, withSteps))
		styleNode(gvNode, node)
		gvNodes[node.ID] = gvNode
		kinds[node.ID] = node.Kind
	}

	for _, edge := range model.Edges {
		from, to := gvNodes[edge.From], gvNodes[edge.To]
		if from == nil || to == nil {
			continue
		}
		e, err := graph.CreateEdgeByName("", from, to)
		if err != nil {
			return nil, fmt.Errorf("diagram: create edge %s -> %s: %w", edge.From, edge.To, err)
		}
		if edge.Label != "" {
			e.SetLabel(edge.Label)
		}
		switch {
		case kinds[edge.From] == NodeKindStart || kinds[edge.To] == NodeKindEnd:
			e.SetStyle(cgraph.DottedEdgeStyle)
		case kinds[edge.To] == NodeKindCall:
			e.SetStyle(cgraph.DashedEdgeStyle)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("diagram: render PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// imageLabel joins the label, detail and optionally the step list. Step
// lines are left-justified with graphviz's \l escape.
func imageLabel(node *Node, withSteps bool) string {
	label := firstLine(node.Label)
	if node.Detail != "" {
		label += "\n" + node.Detail
	}
	if !withSteps || len(node.Children) == 0 {
		return label
	}
	var b strings.Builder
	b.WriteString(label)
	b.WriteString("\n")
	for _, sg := range node.Children {
		for i, step := range sg.Nodes {
			fmt.Fprintf(&b, "%d. %s\\l", i+1, firstLine(step.Label))
		}
	}
	return b.String()
}

func styleNode(gvNode *cgraph.Node, node *Node) {
	switch node.Kind {
	case NodeKindJob:
		gvNode.SetShape(cgraph.BoxShape)
	case NodeKindMatrix:
		gvNode.SetShape(cgraph.HexagonShape)
	case NodeKindCall:
		gvNode.SetShape(cgraph.EllipseShape)
	case NodeKindStart, NodeKindEnd:
		gvNode.SetShape(cgraph.CircleShape)
		gvNode.SetWidth(0.5)
		gvNode.SetHeight(0.5)
	}

	if node.Status == nil {
		return
	}
	if fill, ok := statusFill[node.Status.Status]; ok {
		gvNode.SetStyle(cgraph.FilledNodeStyle)
		gvNode.SetFillColor(fill)
		gvNode.SetFontColor("white")
	}
}
