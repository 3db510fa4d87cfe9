// Package layout turns a pipeline graph into a positioned, labeled
// view ready for display. A hierarchical (layered) arrangement is
// preferred; graphs the layering cannot order fall back to a generic
// force-directed layout. Rendering never mutates the graph.
package layout

import (
	"errors"
	"fmt"

	"github.com/pipewalk/pipewalk/dag"
)

// Node fills. The highlighted stage gets the accent fill; every other
// node shares the neutral one.
const (
	NeutralFill = "skyblue"
	AccentFill  = "orange"
)

// View is a render-ready representation of a graph. Coordinates are
// normalized to the unit square.
type View struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// NodeView is one positioned, styled stage node.
type NodeView struct {
	ID          dag.NodeID `json:"id"`
	Type        string     `json:"type"`
	Label       string     `json:"label"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Fill        string     `json:"fill"`
	Highlighted bool       `json:"highlighted"`
}

// EdgeView is one directed edge. Edges whose endpoints were never
// added as nodes are carried through as-is; consumers will find no
// matching NodeView, which is how a dangling reference surfaces.
type EdgeView struct {
	From dag.NodeID `json:"from"`
	To   dag.NodeID `json:"to"`
}

// Render produces the positioned view of g. When highlight names an
// existing node, exactly that one node is highlighted; any other value
// (including "") highlights nothing.
func Render(g *dag.Graph, highlight dag.NodeID) View {
	positions, err := layered(g)
	if err != nil {
		positions = forceDirected(g)
	}

	nodes := g.Nodes()
	view := View{
		Nodes: make([]NodeView, 0, len(nodes)),
		Edges: make([]EdgeView, 0, len(g.Edges())),
	}

	for _, n := range nodes {
		p := positions[n.ID]
		view.Nodes = append(view.Nodes, NodeView{
			ID:          n.ID,
			Type:        n.Type,
			Label:       fmt.Sprintf("%s\n(%s)", n.ID, n.Type),
			X:           p.x,
			Y:           p.y,
			Fill:        fill(n.ID, highlight),
			Highlighted: n.ID == highlight,
		})
	}

	for _, e := range g.Edges() {
		view.Edges = append(view.Edges, EdgeView{From: e.From, To: e.To})
	}

	return view
}

func fill(id, highlight dag.NodeID) string {
	if id == highlight {
		return AccentFill
	}
	return NeutralFill
}

type point struct {
	x, y float64
}

var errNotLayerable = errors.New("graph cannot be layered")

// layered assigns each node a layer equal to its longest path from a
// root (Kahn-style), placing layers left to right and spreading the
// nodes of one layer vertically. It fails when the graph has no
// topological order.
func layered(g *dag.Graph) (map[dag.NodeID]point, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return map[dag.NodeID]point{}, nil
	}

	// Edges touching undeclared nodes cannot be positioned and do not
	// participate in layering.
	children := make(map[dag.NodeID][]dag.NodeID, len(nodes))
	indegree := make(map[dag.NodeID]int, len(nodes))
	for _, e := range g.Edges() {
		if !g.Has(e.From) || !g.Has(e.To) {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		indegree[e.To]++
	}

	layer := make(map[dag.NodeID]int, len(nodes))
	var queue []dag.NodeID
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		for _, child := range children[id] {
			if layer[id]+1 > layer[child] {
				layer[child] = layer[id] + 1
			}
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if visited != len(nodes) {
		return nil, errNotLayerable
	}

	maxLayer := 0
	perLayer := make(map[int][]dag.NodeID)
	for _, n := range nodes {
		l := layer[n.ID]
		perLayer[l] = append(perLayer[l], n.ID)
		if l > maxLayer {
			maxLayer = l
		}
	}

	positions := make(map[dag.NodeID]point, len(nodes))
	for l, ids := range perLayer {
		x := 0.5
		if maxLayer > 0 {
			x = float64(l) / float64(maxLayer)
		}
		for i, id := range ids {
			positions[id] = point{
				x: x,
				y: float64(i+1) / float64(len(ids)+1),
			}
		}
	}

	return positions, nil
}
