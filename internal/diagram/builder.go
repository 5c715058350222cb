package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/wfkit/internal/dag"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// Build constructs a DiagramModel from a workflow and optional lint
// results. It uses dag.Parse for topology; jobs become nodes and their
// steps a sequential SubGraph.
func Build(w *workflow.Workflow, lint *schema.ValidationResult) (*DiagramModel, error) {
	if w == nil {
		return nil, fmt.Errorf("diagram: nil workflow")
	}
	d, err := dag.Parse(w)
	if err != nil {
		return nil, fmt.Errorf("diagram: parse job graph: %w", err)
	}

	overlays := indexIssues(lint)

	nodes := make([]*Node, 0, len(d.Sorted)+2)
	nodes = append(nodes, &Node{ID: startID, Label: startLabel(w), Kind: NodeKindStart})
	for _, id := range d.Sorted {
		node := jobToNode(id, d.Jobs[id])
		node.Status = overlays[id]
		nodes = append(nodes, node)
	}
	nodes = append(nodes, &Node{ID: endID, Label: "End", Kind: NodeKindEnd})

	return &DiagramModel{
		Title:  w.DisplayName(),
		Nodes:  nodes,
		Edges:  buildEdges(d),
		Levels: buildLevels(d),
	}, nil
}

func startLabel(w *workflow.Workflow) string {
	triggers := w.Triggers()
	if len(triggers) == 0 {
		return "Start"
	}
	return "on: " + strings.Join(triggers, ", ")
}

func jobToNode(id string, j *workflow.Job) *Node {
	node := &Node{ID: id, Label: id, Kind: NodeKindJob}
	if name := j.DisplayName(); name != "" {
		node.Label = name
	}

	switch {
	case j.UsesRef() != "":
		node.Kind = NodeKindCall
		node.Detail = j.UsesRef()
	case j.HasStaticMatrix():
		node.Kind = NodeKindMatrix
		node.Detail = "matrix: " + strings.Join(j.MatrixAxes(), " x ")
	}

	steps := j.StepList()
	if len(steps) == 0 {
		return node
	}
	sg := &SubGraph{Label: "steps"}
	for i, s := range steps {
		sub := &Node{ID: fmt.Sprintf("%s.%d", id, i), Label: s.Label(), Kind: NodeKindJob}
		if sub.Label == "" {
			sub.Label = fmt.Sprintf("step %d", i+1)
		}
		sg.Nodes = append(sg.Nodes, sub)
		if i > 0 {
			sg.Edges = append(sg.Edges, Edge{From: sg.Nodes[i-1].ID, To: sub.ID})
		}
	}
	node.Children = []*SubGraph{sg}
	return node
}

// indexIssues groups lint issues by the job their path points into.
func indexIssues(res *schema.ValidationResult) map[string]*StatusOverlay {
	out := map[string]*StatusOverlay{}
	if res == nil {
		return out
	}
	overlay := func(path string) *StatusOverlay {
		id := jobOf(path)
		if id == "" {
			return nil
		}
		o, ok := out[id]
		if !ok {
			o = &StatusOverlay{Status: StatusOK}
			out[id] = o
		}
		return o
	}
	for _, issue := range res.Errors {
		if o := overlay(issue.Path); o != nil {
			o.Errors++
			o.Status = StatusError
		}
	}
	for _, issue := range res.Warnings {
		if o := overlay(issue.Path); o != nil {
			o.Warnings++
			if o.Status != StatusError {
				o.Status = StatusWarning
			}
		}
	}
	return out
}

// jobOf extracts build from jobs.build.steps[0].run.
func jobOf(path string) string {
	rest, ok := strings.CutPrefix(path, "jobs.")
	if !ok {
		return ""
	}
	end := strings.IndexAny(rest, ".[")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// buildEdges creates edges from the job graph plus virtual start/end edges.
func buildEdges(d *dag.DAG) []Edge {
	var edges []Edge
	for _, id := range d.Roots {
		edges = append(edges, Edge{From: startID, To: id})
	}
	for _, id := range d.Sorted {
		for _, dep := range d.Edges[id] {
			edges = append(edges, Edge{From: dep, To: id})
		}
	}
	for _, id := range d.Sorted {
		if len(d.Reverse[id]) == 0 {
			edges = append(edges, Edge{From: id, To: endID})
		}
	}
	if len(d.Sorted) == 0 {
		edges = append(edges, Edge{From: startID, To: endID})
	}
	return edges
}

// buildLevels wraps the graph levels with the virtual start and end nodes.
func buildLevels(d *dag.DAG) [][]string {
	levels := make([][]string, 0, len(d.Levels)+2)
	levels = append(levels, []string{startID})
	levels = append(levels, d.Levels...)
	return append(levels, []string{endID})
}
