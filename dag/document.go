package dag

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalidDocument is returned when a pipeline document cannot be
// parsed or, in strict mode, fails validation. Callers typically
// recover by falling back to Default().
var ErrInvalidDocument = errors.New("invalid pipeline document")

// Document is the JSON configuration shape accepted from users:
//
//	{
//	  "nodes": [ { "id": "read", "type": "source" }, ... ],
//	  "edges": [ [ "read", "map1" ], ... ]
//	}
type Document struct {
	Nodes []DocumentNode `json:"nodes"`
	Edges [][2]string    `json:"edges"`
}

// DocumentNode describes one stage node in a pipeline document.
type DocumentNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Default returns the built-in five-node linear pipeline used whenever
// no document is supplied or the supplied one is unusable.
func Default() Document {
	return Document{
		Nodes: []DocumentNode{
			{ID: "read", Type: "source"},
			{ID: "map1", Type: "transformation"},
			{ID: "filter1", Type: "transformation"},
			{ID: "reduce1", Type: "shuffle"},
			{ID: "output", Type: "sink"},
		},
		Edges: [][2]string{
			{"read", "map1"},
			{"map1", "filter1"},
			{"filter1", "reduce1"},
			{"reduce1", "output"},
		},
	}
}

// Parse decodes a pipeline document. A document that decodes but
// declares no nodes is treated as invalid, so that callers fall back
// to the default pipeline rather than render an empty graph.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(doc.Nodes) == 0 {
		return Document{}, fmt.Errorf("%w: no nodes declared", ErrInvalidDocument)
	}
	return doc, nil
}

// Validate checks the document for defects the permissive graph would
// otherwise swallow: empty node ids and edges referencing undeclared
// nodes. All violations are collected, not just the first.
func (d Document) Validate() error {
	ids := make(map[string]struct{}, len(d.Nodes))

	var err error
	for i, n := range d.Nodes {
		if n.ID == "" {
			err = multierr.Append(err, fmt.Errorf("node %d: empty id", i))
			continue
		}
		ids[n.ID] = struct{}{}
	}

	for _, e := range d.Edges {
		if _, ok := ids[e[0]]; !ok {
			err = multierr.Append(err, fmt.Errorf("%w: edge source %q", ErrUnknownNode, e[0]))
		}
		if _, ok := ids[e[1]]; !ok {
			err = multierr.Append(err, fmt.Errorf("%w: edge target %q", ErrUnknownNode, e[1]))
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// Build constructs a Graph from the document. With Strict() the
// document is validated first and the graph rejects dangling edges;
// without it every declared node and edge is inserted as-is.
func (d Document) Build(opts ...GraphOption) (*Graph, error) {
	g := New(opts...)
	if g.strict {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	for _, n := range d.Nodes {
		g.AddNode(NodeID(n.ID), n.Type)
	}
	for _, e := range d.Edges {
		if err := g.AddEdge(NodeID(e[0]), NodeID(e[1])); err != nil {
			return nil, err
		}
	}
	return g, nil
}
