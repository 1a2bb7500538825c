// Package dagre adapts the Graphviz dot engine as the hierarchical layout
// stage of the flow layout pipeline.
//
// dot performs rank-based layered drawing with network-simplex ranking,
// which minimizes edge length variance and keeps the left-to-right "wizard"
// spine of a survey flow straight. The adapter feeds dot adaptively computed
// separations and per-node sizes (host-measured or estimated), then converts
// dot's center-anchored, bottom-left-origin output back into the top-left
// anchored world coordinates of the node position contract.
//
// The underlying Graphviz engine (a WebAssembly build loaded by
// goccy/go-graphviz) is expensive to initialize, so it is created lazily on
// first use and memoized for the life of the process.
package dagre

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

// pointsPerInch converts between world units (treated as points) and the
// inches Graphviz expects for separations and node sizes.
const pointsPerInch = 72.0

// Edge weights and minimum rank lengths. Sequential edges are pulled
// straight and kept compact; conditional branches may span further ranks
// and bend more freely.
const (
	sequentialWeight = 3
	sequentialMinLen = 1
	branchWeight     = 1
	branchMinLen     = 2
)

// Options configures a layout computation.
type Options struct {
	// RankSep and NodeSep are the separations in world units, usually
	// produced by the adaptive spacing heuristic.
	RankSep float64
	NodeSep float64

	// MarginX and MarginY offset the layout's top-left origin.
	MarginX float64
	MarginY float64

	// SizeFor supplies each node's layout size (padded measured size or
	// content estimate). Required.
	SizeFor func(*flow.Node) geom.Size
}

// =============================================================================
// Lazy Engine Singleton
// =============================================================================

var (
	engineOnce sync.Once
	engineMu   sync.Mutex
	engine     *graphviz.Graphviz
	engineErr  error
)

// instance returns the process-wide Graphviz engine, initializing it on
// first use. Initialization failure is sticky: every subsequent call
// returns the same error rather than retrying the load.
func instance(ctx context.Context) (*graphviz.Graphviz, error) {
	engineOnce.Do(func() {
		engine, engineErr = graphviz.New(ctx)
		if engineErr != nil {
			engineErr = fmt.Errorf("init graphviz: %w", engineErr)
		}
	})
	return engine, engineErr
}

// =============================================================================
// Layout Computation
// =============================================================================

// Compute lays out the graph and returns the new top-left position of every
// node, keyed by node ID. The input graph is not mutated.
//
// Errors from engine initialization or execution propagate to the caller,
// which is expected to leave existing positions unchanged (the pipeline
// never applies a partial result).
func Compute(ctx context.Context, g *flow.Graph, opts Options) (map[string]geom.Point, error) {
	if opts.SizeFor == nil {
		return nil, fmt.Errorf("dagre: Options.SizeFor is required")
	}
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return map[string]geom.Point{}, nil
	}

	// Stable generated names keep the DOT source free of quoting issues and
	// make the laid-out output trivially parseable.
	names := make(map[string]string, len(nodes)) // node ID -> dot name
	ids := make(map[string]string, len(nodes))   // dot name -> node ID
	sizes := make(map[string]geom.Size, len(nodes))
	for i, n := range nodes {
		name := fmt.Sprintf("n%d", i)
		names[n.ID] = name
		ids[name] = n.ID
		sizes[n.ID] = opts.SizeFor(n)
	}

	dot := buildDOT(g, names, sizes, opts)

	laidOut, err := runLayout(ctx, dot)
	if err != nil {
		return nil, err
	}

	centers, height, err := parsePositions(laidOut)
	if err != nil {
		return nil, err
	}

	// Convert dot's center-anchored, y-up coordinates to top-left anchored,
	// y-down world coordinates, then normalize the drawing onto the
	// configured margins.
	positions := make(map[string]geom.Point, len(nodes))
	minX, minY := 0.0, 0.0
	first := true
	for name, c := range centers {
		id, ok := ids[name]
		if !ok {
			continue
		}
		size := sizes[id]
		p := geom.Point{
			X: c.X - size.Width/2,
			Y: (height - c.Y) - size.Height/2,
		}
		positions[id] = p
		if first || p.X < minX {
			minX = p.X
		}
		if first || p.Y < minY {
			minY = p.Y
		}
		first = false
	}
	if len(positions) != len(nodes) {
		return nil, fmt.Errorf("dagre: layout returned %d positions for %d nodes", len(positions), len(nodes))
	}
	for id, p := range positions {
		positions[id] = geom.Point{
			X: p.X - minX + opts.MarginX,
			Y: p.Y - minY + opts.MarginY,
		}
	}
	return positions, nil
}

// runLayout parses the DOT source and renders it with layout attributes
// attached (xdot output), serializing access to the shared engine.
func runLayout(ctx context.Context, dot string) ([]byte, error) {
	gv, err := instance(ctx)
	if err != nil {
		return nil, err
	}

	engineMu.Lock()
	defer engineMu.Unlock()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// DOT Construction
// =============================================================================

// buildDOT emits the layout input graph: left-to-right ranks, computed
// separations, fixed-size label-free boxes, and per-edge weight/minlen
// derived from the edge's sequential flag.
func buildDOT(g *flow.Graph, names map[string]string, sizes map[string]geom.Size, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", opts.RankSep/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", opts.NodeSep/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		size := sizes[n.ID]
		fmt.Fprintf(&buf, "  %s [width=%.4f, height=%.4f];\n",
			names[n.ID], size.Width/pointsPerInch, size.Height/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		weight, minlen := branchWeight, branchMinLen
		if e.Sequential {
			weight, minlen = sequentialWeight, sequentialMinLen
		}
		fmt.Fprintf(&buf, "  %s -> %s [weight=%d, minlen=%d];\n",
			names[e.Source], names[e.Target], weight, minlen)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// =============================================================================
// Output Parsing
// =============================================================================

var (
	nodeStmtRe = regexp.MustCompile(`^\s*(n\d+)\s*\[`)
	wrapJoinRe = regexp.MustCompile(`,\s*\n\s*`)
	posAttrRe  = regexp.MustCompile(`\bpos="(-?[0-9.eE+]+),(-?[0-9.eE+]+)"`)
	bbAttrRe   = regexp.MustCompile(`\bbb="(-?[0-9.eE+]+),(-?[0-9.eE+]+),(-?[0-9.eE+]+),(-?[0-9.eE+]+)"`)
)

// parsePositions extracts the node centers (in points, y growing upward)
// and the drawing height from laid-out dot output. Graphviz wraps long
// statements — with backslash continuations inside quoted values and with
// comma-terminated indented lines between attributes — so those are joined
// first.
func parsePositions(laidOut []byte) (map[string]geom.Point, float64, error) {
	text := strings.ReplaceAll(string(laidOut), "\\\n", "")
	text = wrapJoinRe.ReplaceAllString(text, ",")

	var height float64
	if m := bbAttrRe.FindStringSubmatch(text); m != nil {
		height, _ = strconv.ParseFloat(m[4], 64)
	}

	centers := make(map[string]geom.Point)
	for _, line := range strings.Split(text, "\n") {
		stmt := nodeStmtRe.FindStringSubmatch(line)
		if stmt == nil || strings.Contains(line, "->") {
			continue
		}
		pos := posAttrRe.FindStringSubmatch(line)
		if pos == nil {
			continue
		}
		x, errX := strconv.ParseFloat(pos[1], 64)
		y, errY := strconv.ParseFloat(pos[2], 64)
		if errX != nil || errY != nil {
			return nil, 0, fmt.Errorf("parse node position %q: bad coordinates", line)
		}
		centers[stmt[1]] = geom.Point{X: x, Y: y}
	}
	if len(centers) == 0 {
		return nil, 0, fmt.Errorf("no node positions in layout output")
	}
	return centers, height, nil
}
