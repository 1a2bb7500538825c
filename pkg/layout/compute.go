// Package layout computes smart positions for flow graphs.
//
// The pipeline runs in four stages:
//  1. [analyze.Analyze] derives structural metrics from the graph.
//  2. [SpacingFor] turns the metrics into adaptive rank/node separations.
//  3. The layered engine ([dagre.Compute]) assigns positions, sizing each
//     node by its host-measured size when available and the content
//     estimate ([EstimateSize]) otherwise.
//  4. The overlap resolver ([overlap.Resolve]) clears any residual
//     collisions the layered pass left behind.
//
// Compute is pure: the input graph is never mutated, and a failed run
// returns an error without a partial result. [Engine] adds the stateful
// conveniences a host needs on top (debouncing, re-entrancy protection,
// applying results back onto a live graph).
package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/flow/analyze"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/layout/dagre"
	"github.com/mlindgren/flowcanvas/pkg/layout/overlap"
	"github.com/mlindgren/flowcanvas/pkg/observability"
)

// Result is the outcome of one layout computation.
type Result struct {
	// Positions is the new top-left position of every node, keyed by ID.
	Positions map[string]geom.Point

	// Metrics and Spacing record what the adaptive stages decided, for
	// logging and inspection.
	Metrics analyze.Metrics
	Spacing Spacing

	// OverlapsResolved is true when the overlap resolver had to move nodes
	// after the layered pass.
	OverlapsResolved bool

	// Bounds is the bounding box of the positioned nodes.
	Bounds geom.Rect

	// Duration is the wall-clock time of the whole computation.
	Duration time.Duration
}

// Compute runs the full layout pipeline on the graph and returns new
// positions for every node. The graph is not mutated; callers apply the
// result themselves (or use [Engine], which does it for them).
func Compute(ctx context.Context, g *flow.Graph, cfg Config) (*Result, error) {
	start := time.Now()

	metrics := analyze.Analyze(g)
	observability.Layout().OnAnalyzeComplete(ctx, string(metrics.Complexity), metrics.BlockNodes, metrics.ConditionalEdges)

	spacing := SpacingFor(metrics, cfg.Spacing)
	size := cfg.SizeFunc(true)

	observability.Layout().OnLayoutStart(ctx, g.NodeCount(), g.EdgeCount())
	positions, err := dagre.Compute(ctx, g, dagre.Options{
		RankSep: spacing.RankSep,
		NodeSep: spacing.NodeSep,
		MarginX: cfg.MarginX,
		MarginY: cfg.MarginY,
		SizeFor: size,
	})
	if err != nil {
		observability.Layout().OnLayoutComplete(ctx, string(metrics.Complexity), time.Since(start), err)
		return nil, fmt.Errorf("layout: %w", err)
	}

	resolved := false
	if overlap.HasOverlaps(g, positions, size) {
		positions = overlap.Resolve(g, positions, size, overlap.DefaultMaxIterations)
		resolved = true
	}
	observability.Layout().OnOverlapResolved(ctx, resolved)

	res := &Result{
		Positions:        positions,
		Metrics:          metrics,
		Spacing:          spacing,
		OverlapsResolved: resolved,
		Bounds:           boundsOf(g, positions, size),
		Duration:         time.Since(start),
	}
	observability.Layout().OnLayoutComplete(ctx, string(metrics.Complexity), res.Duration, nil)
	return res, nil
}

// Apply writes the computed positions onto the graph's nodes. Nodes absent
// from the result keep their positions.
func (r *Result) Apply(g *flow.Graph) {
	for _, n := range g.Nodes() {
		if p, ok := r.Positions[n.ID]; ok {
			n.Position = p
		}
	}
}

// boundsOf unions the node boxes at their computed positions.
func boundsOf(g *flow.Graph, positions map[string]geom.Point, size func(*flow.Node) geom.Size) geom.Rect {
	var bounds geom.Rect
	first := true
	for _, n := range g.Nodes() {
		p, ok := positions[n.ID]
		if !ok {
			continue
		}
		r := geom.RectAt(p, size(n))
		if first {
			bounds = r
			first = false
			continue
		}
		bounds = bounds.Union(r)
	}
	return bounds
}
