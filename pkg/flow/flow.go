// Package flow defines the survey flow graph model consumed by the layout
// pipeline.
//
// A flow graph is a directed graph of survey steps: exactly one start node,
// any number of block nodes (questions, content, uploads), and usually one
// submit node. Edges carry flags distinguishing the sequential spine (the
// default linear path through the survey) from conditional branches created
// by navigation rules.
//
// Unlike a strict DAG, a flow graph tolerates cycles and disconnected
// components: traversals in this module guard with visited sets, and layout
// degrades gracefully instead of rejecting such graphs. [Graph.Validate]
// checks referential integrity only.
//
// Graph is not safe for concurrent use without external synchronization.
package flow

import (
	"errors"
	"slices"

	"github.com/mlindgren/flowcanvas/pkg/geom"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique within a graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateStart is returned by [Graph.AddNode] when a second start
	// node is added. A flow graph has exactly one entry point.
	ErrDuplicateStart = errors.New("graph already has a start node")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the Source
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the Target
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMissingStart is returned by [Graph.Validate] when the graph has
	// nodes but no start node. Layout still works on such graphs (all nodes
	// end up at rank 0); validation flags them so hosts can repair the flow.
	ErrMissingStart = errors.New("graph has no start node")
)

// Kind classifies a node's role in the survey flow.
type Kind string

const (
	// KindStart is the single entry point of the flow.
	KindStart Kind = "start"
	// KindBlock is a survey block (question, content, upload, ...).
	KindBlock Kind = "block"
	// KindSubmit is a terminal node completing the survey.
	KindSubmit Kind = "submit"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindStart || k == KindBlock || k == KindSubmit
}

// Node is a vertex in the flow graph.
//
// Position is top-left anchored in world coordinates. It is owned by the
// layout pipeline once computed, but the host may overwrite it on manual
// drag. Measured is nil until the rendering host has painted the node at
// least once; while nil, the layout pipeline estimates the node's size from
// Block content.
type Node struct {
	ID       string        `json:"id" bson:"id"`
	Kind     Kind          `json:"kind" bson:"kind"`
	Position geom.Point    `json:"position" bson:"position"`
	Measured *geom.Size    `json:"measured,omitempty" bson:"measured,omitempty"`
	Block    *BlockContent `json:"block,omitempty" bson:"block,omitempty"`
}

// Edge is a directed connection between two nodes.
//
// Sequential marks the default linear flow (start → block → ... → submit);
// sequential edges get higher layout weight and shorter minimum rank
// separation so the spine stays straight and compact. Default marks the
// fallback branch out of a node with conditional navigation. Label carries
// the condition text rendered on conditional edges.
type Edge struct {
	Source     string `json:"source" bson:"source"`
	Target     string `json:"target" bson:"target"`
	Sequential bool   `json:"sequential,omitempty" bson:"sequential,omitempty"`
	Default    bool   `json:"default,omitempty" bson:"default,omitempty"`
	Label      string `json:"label,omitempty" bson:"label,omitempty"`
}

// Conditional reports whether the edge represents a conditional branch
// rather than sequential or default flow.
func (e Edge) Conditional() bool { return !e.Sequential && !e.Default }

// ID returns a stable identifier for the edge, used to key edge labels.
func (e Edge) ID() string { return e.Source + "->" + e.Target }

// Graph is a mutable flow graph with adjacency indexes.
//
// Nodes retain insertion order, which doubles as the survey's block order
// for camera navigation and sequential insertion. The zero value is not
// usable - use New.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string // nodeID -> target IDs
	incoming map[string][]string // nodeID -> source IDs
}

// New creates an empty flow graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the ID is empty, ErrDuplicateNodeID if the ID
// is already in use, or ErrDuplicateStart when adding a second start node.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Kind == KindStart {
		if _, ok := g.Start(); ok {
			return ErrDuplicateStart
		}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing. Parallel edges between the same pair are allowed.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e.Target)
	g.incoming[e.Target] = append(g.incoming[e.Target], e.Source)
	return nil
}

// RemoveEdge removes the source→target edge if it exists.
// No error is returned if the edge does not exist. If multiple edges exist
// between the same nodes, only the first is removed.
func (g *Graph) RemoveEdge(source, target string) {
	for i, e := range g.edges {
		if e.Source == source && e.Target == target {
			g.edges = slices.Delete(g.edges, i, i+1)
			break
		}
	}
	if i := slices.Index(g.outgoing[source], target); i >= 0 {
		g.outgoing[source] = slices.Delete(g.outgoing[source], i, i+1)
	}
	if i := slices.Index(g.incoming[target], source); i >= 0 {
		g.incoming[target] = slices.Delete(g.incoming[target], i, i+1)
	}
}

// RemoveNode removes a node and all edges touching it.
// Removing an unknown ID is a no-op.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	if i := slices.Index(g.order, id); i >= 0 {
		g.order = slices.Delete(g.order, i, i+1)
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	for _, t := range g.outgoing[id] {
		if i := slices.Index(g.incoming[t], id); i >= 0 {
			g.incoming[t] = slices.Delete(g.incoming[t], i, i+1)
		}
	}
	for _, s := range g.incoming[id] {
		if i := slices.Index(g.outgoing[s], id); i >= 0 {
			g.outgoing[s] = slices.Delete(g.outgoing[s], i, i+1)
		}
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the actual node in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
// The returned slice contains pointers to the actual node structs, so
// modifications affect the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// BlockCount returns the number of block nodes.
func (g *Graph) BlockCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.Kind == KindBlock {
			count++
		}
	}
	return count
}

// Children returns the IDs of nodes this node has edges to.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Start returns the graph's start node, or false when the graph has none.
func (g *Graph) Start() (*Node, bool) {
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == KindStart {
			return n, true
		}
	}
	return nil, false
}

// BlockIDs returns the IDs of all block nodes in insertion order.
// This is the survey's block order used for camera navigation.
func (g *Graph) BlockIDs() []string {
	var ids []string
	for _, id := range g.order {
		if g.nodes[id].Kind == KindBlock {
			ids = append(ids, id)
		}
	}
	return ids
}

// Bounds returns the bounding rectangle of the node boxes, using measured
// sizes where available and zero sizes otherwise. Returns false for an
// empty graph.
func (g *Graph) Bounds() (geom.Rect, bool) {
	var bounds geom.Rect
	first := true
	for _, id := range g.order {
		n := g.nodes[id]
		r := geom.RectAt(n.Position, n.SizeOrZero())
		if first {
			bounds = r
			first = false
			continue
		}
		bounds = bounds.Union(r)
	}
	return bounds, !first
}

// SizeOrZero returns the node's measured size, or a zero size when the node
// has not been measured yet.
func (n *Node) SizeOrZero() geom.Size {
	if n.Measured != nil {
		return *n.Measured
	}
	return geom.Size{}
}

// Clone returns a deep copy of the graph.
// Node structs, block content, and adjacency indexes are copied; the clone
// can be mutated without affecting the original.
func (g *Graph) Clone() *Graph {
	clone := New()
	for _, id := range g.order {
		n := *g.nodes[id]
		if n.Measured != nil {
			m := *n.Measured
			n.Measured = &m
		}
		if n.Block != nil {
			b := n.Block.clone()
			n.Block = &b
		}
		clone.nodes[n.ID] = &n
		clone.order = append(clone.order, n.ID)
	}
	for _, e := range g.edges {
		clone.edges = append(clone.edges, e)
		clone.outgoing[e.Source] = append(clone.outgoing[e.Source], e.Target)
		clone.incoming[e.Target] = append(clone.incoming[e.Target], e.Source)
	}
	return clone
}

// Validate checks referential integrity and returns nil if valid.
// It verifies that every edge connects existing nodes and that a non-empty
// graph has a start node. Cycles are intentionally not rejected: hosts may
// create conditional back-edges ("retry this question"), and all traversals
// in this module terminate on cyclic graphs.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.Source]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	if len(g.nodes) > 0 {
		if _, ok := g.Start(); !ok {
			return ErrMissingStart
		}
	}
	return nil
}
