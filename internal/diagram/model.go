package diagram

// NodeKind tells the renderers which shape to draw for a node.
type NodeKind string

const (
	NodeKindJob    NodeKind = "job"    // plain runner job
	NodeKindMatrix NodeKind = "matrix" // job fanned out by a strategy matrix
	NodeKindCall   NodeKind = "call"   // reusable workflow call
	NodeKindStart  NodeKind = "start"  // virtual trigger node
	NodeKindEnd    NodeKind = "end"    // virtual sink node
)

// Lint statuses carried by StatusOverlay.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagramModel is a workflow's job graph laid out by needs level, shared
// by the ASCII, Mermaid and PNG renderers.
type DiagramModel struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string // node IDs per level, virtual nodes included
}

// Node returns the node with the given ID, or nil.
func (m *DiagramModel) Node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Node is one job, or one step when nested in a SubGraph.
type Node struct {
	ID       string
	Label    string
	Kind     NodeKind
	Detail   string // runner, matrix axes or called workflow
	Status   *StatusOverlay
	Children []*SubGraph
}

// SubGraph is the ordered step chain of a job.
type SubGraph struct {
	Label string
	Nodes []*Node
	Edges []Edge
}

// StatusOverlay counts the lint findings whose path points into a job.
type StatusOverlay struct {
	Status   string
	Errors   int
	Warnings int
}

// Edge is a needs dependency, or a link to a virtual node.
type Edge struct {
	From  string
	To    string
	Label string
}

const (
	startID = "__start__"
	endID   = "__end__"
)
