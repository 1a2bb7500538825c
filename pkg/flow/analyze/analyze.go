// Package analyze computes structural metrics of a flow graph.
//
// The metrics drive adaptive spacing in the layout pipeline: deep graphs get
// wider rank separation, dense ranks get more node separation, and the
// presence of conditional branches adds breathing room for edge labels.
//
// All traversals are breadth-first from the start node with a visited-set
// guard, so cyclic graphs terminate (nodes only reachable through a back
// edge are assigned the rank of their first visit). Nodes unreachable from
// the start are excluded from depth and rank computation but still counted
// in the totals.
package analyze

import "github.com/mlindgren/flowcanvas/pkg/flow"

// Complexity classifies how demanding a graph is to lay out.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Classification thresholds. A graph is complex when it exceeds any of the
// complex-tier thresholds, moderate when it exceeds any moderate-tier
// threshold, and simple otherwise. Complex is checked first.
const (
	complexBlockCount   = 10
	complexBranchCount  = 5
	complexNodesPerRank = 3

	moderateBlockCount   = 5
	moderateBranchCount  = 2
	moderateNodesPerRank = 2
)

// Metrics describes a graph snapshot's structure.
// Recomputed fresh on every layout pass; never persisted.
type Metrics struct {
	TotalNodes       int
	BlockNodes       int
	MaxDepth         int
	AvgNodesPerRank  float64
	ConditionalEdges int
	Complexity       Complexity
}

// HasConditionalFlow reports whether any conditional branch exists.
func (m Metrics) HasConditionalFlow() bool { return m.ConditionalEdges > 0 }

// Analyze computes metrics for the graph.
// Degenerate graphs (no edges, no start node, disconnected components)
// produce MaxDepth 0 and are handled downstream by the spacing heuristic's
// max(depth, 1) guard. Analyze never fails.
func Analyze(g *flow.Graph) Metrics {
	m := Metrics{
		TotalNodes: g.NodeCount(),
		BlockNodes: g.BlockCount(),
	}

	for _, e := range g.Edges() {
		if e.Conditional() {
			m.ConditionalEdges++
		}
	}

	for _, rank := range Ranks(g) {
		if rank > m.MaxDepth {
			m.MaxDepth = rank
		}
	}

	if m.MaxDepth > 0 {
		m.AvgNodesPerRank = float64(m.BlockNodes) / float64(max(m.MaxDepth, 1))
	} else {
		m.AvgNodesPerRank = float64(m.BlockNodes)
	}

	m.Complexity = classify(m)
	return m
}

// classify picks the complexity tier. Tiers are checked from complex down;
// the first match wins.
func classify(m Metrics) Complexity {
	switch {
	case m.BlockNodes > complexBlockCount,
		m.ConditionalEdges > complexBranchCount,
		m.AvgNodesPerRank > complexNodesPerRank:
		return ComplexityComplex
	case m.BlockNodes > moderateBlockCount,
		m.ConditionalEdges > moderateBranchCount,
		m.AvgNodesPerRank > moderateNodesPerRank:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// Ranks returns the BFS rank (distance from the start node) of every node
// reachable from start. Graphs without a start node produce an empty map;
// callers treat missing entries as rank 0.
func Ranks(g *flow.Graph) map[string]int {
	ranks := make(map[string]int)
	start, ok := g.Start()
	if !ok {
		return ranks
	}

	ranks[start.ID] = 0
	queue := []string{start.ID}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range g.Children(curr) {
			if _, visited := ranks[child]; visited {
				continue
			}
			ranks[child] = ranks[curr] + 1
			queue = append(queue, child)
		}
	}
	return ranks
}
