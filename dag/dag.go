package dag

import (
	"errors"
	"fmt"
)

// NodeID identifies a stage node within a Graph.
// IDs are free-form strings chosen by the pipeline author.
type NodeID string

// Node is one pipeline stage: an identifier plus a type tag.
// The tag (source, transformation, shuffle, sink, ...) is an open set
// used only for display; arbitrary strings are accepted.
type Node struct {
	ID   NodeID `json:"id"`
	Type string `json:"type"`
}

// Edge is a directed connection between two stage nodes.
type Edge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// ErrUnknownNode is returned by AddEdge in strict mode when an edge
// endpoint has not been registered as a node.
var ErrUnknownNode = errors.New("node not found")

// Graph is a directed graph of pipeline stages. Despite the usual
// framing as a DAG, acyclicity is not enforced; a cyclic graph is
// tolerated and only affects which layout the renderer ends up using.
//
// Node ids are unique within a graph. Re-adding an existing id
// overwrites the node's type tag.
//
// Graph is not safe for concurrent mutation. A fully built Graph is
// immutable by convention and safe for concurrent reads.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID // insertion order, for deterministic traversal
	edges []Edge

	strict bool
}

// GraphOption configures a Graph at construction time.
type GraphOption func(*Graph)

// Strict makes AddEdge fail with ErrUnknownNode when an endpoint is
// missing from the node set. The default is permissive: dangling
// endpoints are kept and surface, at worst, as a rendering anomaly.
func Strict() GraphOption {
	return func(g *Graph) {
		g.strict = true
	}
}

// New creates an empty graph.
func New(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes: make(map[NodeID]*Node),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode inserts a stage node, or overwrites its type tag if the id
// is already present. It never fails.
func (g *Graph) AddNode(id NodeID, nodeType string) {
	if existing, ok := g.nodes[id]; ok {
		existing.Type = nodeType
		return
	}
	g.nodes[id] = &Node{ID: id, Type: nodeType}
	g.order = append(g.order, id)
}

// AddEdge inserts a directed edge. In the default permissive mode it
// never fails, even if an endpoint is absent from the node set. In
// strict mode a missing endpoint yields ErrUnknownNode.
func (g *Graph) AddEdge(from, to NodeID) error {
	if g.strict {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: edge source %q", ErrUnknownNode, from)
		}
		if _, ok := g.nodes[to]; !ok {
			return fmt.Errorf("%w: edge target %q", ErrUnknownNode, to)
		}
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}
