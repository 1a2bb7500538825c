package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/labels"
)

// SVG renders the positioned graph as a standalone SVG document.
//
// Node boxes are drawn at their world positions, edges run from the source
// box's right edge to the target box's left edge, and conditional edge
// labels are placed at edge midpoints with offsets from a fresh label
// registry, so labels of parallel branches never stack.
func SVG(g *flow.Graph, opts Options) ([]byte, error) {
	opts.setDefaults()
	if opts.SizeFor == nil {
		return nil, fmt.Errorf("render svg: Options.SizeFor is required")
	}
	if g.NodeCount() == 0 {
		return nil, fmt.Errorf("render svg: empty graph")
	}

	boxes := make(map[string]geom.Rect, g.NodeCount())
	var bounds geom.Rect
	first := true
	for _, n := range g.Nodes() {
		r := geom.RectAt(n.Position, opts.SizeFor(n))
		boxes[n.ID] = r
		if first {
			bounds = r
			first = false
			continue
		}
		bounds = bounds.Union(r)
	}
	bounds = bounds.Inflate(opts.Padding)

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		bounds.X, bounds.Y, bounds.Width, bounds.Height, bounds.Width, bounds.Height)
	fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		bounds.X, bounds.Y, bounds.Width, bounds.Height, opts.Theme.Background)
	writeArrowMarker(&buf, opts.Theme)

	// Edges under nodes, labels last so they stay readable.
	registry := labels.NewRegistry()
	var labelBuf bytes.Buffer
	for _, e := range g.Edges() {
		writeEdge(&buf, &labelBuf, e, boxes, opts.Theme, registry)
	}

	for _, n := range g.Nodes() {
		writeNode(&buf, n, boxes[n.ID], opts.Theme)
	}

	buf.Write(labelBuf.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func writeArrowMarker(buf *bytes.Buffer, theme Theme) {
	fmt.Fprintf(buf, `  <defs><marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker></defs>`+"\n",
		theme.Edge)
}

func writeNode(buf *bytes.Buffer, n *flow.Node, box geom.Rect, theme Theme) {
	fill := theme.NodeFill
	switch n.Kind {
	case flow.KindStart:
		fill = theme.StartFill
	case flow.KindSubmit:
		fill = theme.SubmitFill
	}

	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s"/>`+"\n",
		box.X, box.Y, box.Width, box.Height, fill, theme.NodeStroke)

	title := nodeTitle(n)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="14" fill="%s" text-anchor="middle">%s</text>`+"\n",
		box.CenterX(), box.Y+24, theme.Text, escape(title))

	if n.Kind == flow.KindBlock && n.Block != nil && n.Block.Type != "" {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="11" fill="%s" text-anchor="middle">%s</text>`+"\n",
			box.CenterX(), box.Y+42, theme.Muted, escape(string(n.Block.Type)))
	}
}

func writeEdge(buf, labelBuf *bytes.Buffer, e flow.Edge, boxes map[string]geom.Rect, theme Theme, registry *labels.Registry) {
	src, ok := boxes[e.Source]
	if !ok {
		return
	}
	dst, ok := boxes[e.Target]
	if !ok {
		return
	}

	from := geom.Point{X: src.Right(), Y: src.CenterY()}
	to := geom.Point{X: dst.X, Y: dst.CenterY()}

	color := theme.Edge
	dash := ""
	if !e.Sequential {
		color = theme.EdgeSoft
		dash = ` stroke-dasharray="6 4"`
	}

	// Cubic curve with horizontal handles reads well for rank flows.
	bend := (to.X - from.X) / 2
	fmt.Fprintf(buf, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="1.5"%s marker-end="url(#arrow)"/>`+"\n",
		from.X, from.Y, from.X+bend, from.Y, to.X-bend, to.Y, to.X, to.Y, color, dash)

	if e.Label == "" {
		return
	}

	mid := geom.Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
	width := labelWidth(e.Label)
	off := registry.Offset(e.ID(), mid.X, mid.Y, width)
	x, y := mid.X+off.X, mid.Y+off.Y
	registry.Register(e.ID(), x, y, width, labels.LabelHeight)

	fmt.Fprintf(labelBuf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%d" rx="4" fill="%s" stroke="%s"/>`+"\n",
		x-width/2, y-labels.LabelHeight/2.0, width, labels.LabelHeight, theme.LabelFill, theme.NodeStroke)
	fmt.Fprintf(labelBuf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="11" fill="%s" text-anchor="middle">%s</text>`+"\n",
		x, y+4, theme.Text, escape(e.Label))
}

func nodeTitle(n *flow.Node) string {
	switch n.Kind {
	case flow.KindStart:
		return "Start"
	case flow.KindSubmit:
		return "Submit"
	}
	if n.Block != nil && n.Block.Label != "" {
		return n.Block.Label
	}
	return n.ID
}

// labelWidth approximates the rendered width of a label at font size 11.
func labelWidth(text string) float64 {
	return max(float64(len(text))*7+16, labels.MinLabelWidth)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string { return escaper.Replace(s) }
