// Package overlap resolves residual node collisions left after the
// hierarchical layout pass.
//
// The resolver is an iterative, force-style displacement pass: every
// overlapping pair of padded node boxes is nudged apart, preferring vertical
// displacement (which never disturbs the left-to-right rank columns) and
// falling back to rank-aware horizontal displacement when the horizontal
// overlap dwarfs the vertical one. The pass runs until a full pairwise scan
// finds no overlaps or the iteration cap is reached; hitting the cap is
// accepted as best-effort degraded output, not a failure.
package overlap

import (
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/flow/analyze"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

const (
	// Padding is the clearance required between node boxes. Two boxes
	// closer than this on both axes count as overlapping.
	Padding = 16

	// DefaultMaxIterations caps the pairwise displacement passes.
	DefaultMaxIterations = 30

	// horizontalBias is how disproportionate the horizontal overlap must be
	// before the resolver abandons its vertical preference.
	horizontalBias = 1.5
)

// SizeFunc supplies the layout size of a node.
type SizeFunc func(*flow.Node) geom.Size

// HasOverlaps reports whether any two node boxes overlap under the
// configured padding, at the given positions.
func HasOverlaps(g *flow.Graph, positions map[string]geom.Point, sizeFor SizeFunc) bool {
	nodes := g.Nodes()
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a := geom.RectAt(positions[nodes[i].ID], sizeFor(nodes[i]))
			b := geom.RectAt(positions[nodes[j].ID], sizeFor(nodes[j]))
			if geom.Overlaps(a, b, Padding) {
				return true
			}
		}
	}
	return false
}

// Resolve returns adjusted positions with overlapping pairs pushed apart.
// The input map is not mutated. maxIterations <= 0 uses
// DefaultMaxIterations.
//
// BFS ranks guide horizontal displacement: a node with a strictly smaller
// rank is always pushed left of one with a larger rank, so rank ordering
// survives resolution. Same-rank pairs separate according to their current
// center ordering. Nodes are scanned pairwise in insertion order, which
// keeps the result deterministic.
func Resolve(g *flow.Graph, positions map[string]geom.Point, sizeFor SizeFunc, maxIterations int) map[string]geom.Point {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	adjusted := make(map[string]geom.Point, len(positions))
	for id, p := range positions {
		adjusted[id] = p
	}

	nodes := g.Nodes()
	ranks := analyze.Ranks(g)

	for iter := 0; iter < maxIterations; iter++ {
		moved := false
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				if separate(nodes[i], nodes[j], adjusted, ranks, sizeFor) {
					moved = true
				}
			}
		}
		if !moved {
			break
		}
	}
	return adjusted
}

// separate nudges one overlapping pair apart. Returns false when the pair
// does not overlap.
func separate(a, b *flow.Node, positions map[string]geom.Point, ranks map[string]int, sizeFor SizeFunc) bool {
	ra := geom.RectAt(positions[a.ID], sizeFor(a))
	rb := geom.RectAt(positions[b.ID], sizeFor(b))
	if !geom.Overlaps(ra, rb, Padding) {
		return false
	}

	// Overlap extents of the padded boxes.
	overlapX := geom.OverlapX(ra.Inflate(Padding), rb.Inflate(Padding))
	overlapY := geom.OverlapY(ra.Inflate(Padding), rb.Inflate(Padding))

	if overlapX > overlapY*horizontalBias {
		pushVertical(a, b, ra, rb, overlapY, positions)
	} else if ranks[a.ID] != ranks[b.ID] {
		pushHorizontalRanked(a, b, ranks, overlapX, positions)
	} else if overlapY > 0 && overlapX >= overlapY {
		// Same rank, mostly side-by-side anyway: vertical keeps columns.
		pushVertical(a, b, ra, rb, overlapY, positions)
	} else {
		pushHorizontalCentered(a, b, ra, rb, overlapX, positions)
	}
	return true
}

// pushVertical moves the pair apart along y, away from each other's center,
// splitting half the (overlap + padding) between the two.
func pushVertical(a, b *flow.Node, ra, rb geom.Rect, overlapY float64, positions map[string]geom.Point) {
	push := (overlapY + Padding) / 2
	pa, pb := positions[a.ID], positions[b.ID]
	if ra.CenterY() <= rb.CenterY() {
		pa.Y -= push
		pb.Y += push
	} else {
		pa.Y += push
		pb.Y -= push
	}
	positions[a.ID] = pa
	positions[b.ID] = pb
}

// pushHorizontalRanked moves the smaller-rank node left and the larger-rank
// node right, regardless of their current positions, so rank ordering is
// restored even when the layout pass left them crossed.
func pushHorizontalRanked(a, b *flow.Node, ranks map[string]int, overlapX float64, positions map[string]geom.Point) {
	push := (overlapX + Padding) / 2
	left, right := a, b
	if ranks[a.ID] > ranks[b.ID] {
		left, right = b, a
	}
	pl, pr := positions[left.ID], positions[right.ID]
	pl.X -= push
	pr.X += push
	positions[left.ID] = pl
	positions[right.ID] = pr
}

// pushHorizontalCentered separates a same-rank pair by their current center
// ordering.
func pushHorizontalCentered(a, b *flow.Node, ra, rb geom.Rect, overlapX float64, positions map[string]geom.Point) {
	push := (overlapX + Padding) / 2
	pa, pb := positions[a.ID], positions[b.ID]
	if ra.CenterX() <= rb.CenterX() {
		pa.X -= push
		pb.X += push
	} else {
		pa.X += push
		pb.X -= push
	}
	positions[a.ID] = pa
	positions[b.ID] = pb
}
