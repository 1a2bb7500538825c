package render

import (
	"bytes"
	"fmt"

	"github.com/mlindgren/flowcanvas/pkg/flow"
)

// ToDOT converts a flow graph to Graphviz DOT format.
// The resulting DOT string can be rendered with [PNG] or fed to external
// tooling. Terminal nodes are filled, conditional edges dashed and
// labeled.
func ToDOT(g *flow.Graph, theme Theme) string {
	if theme.Name == "" {
		theme = LightTheme()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", theme.Background)
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=%q, color=%q, fontcolor=%q, fontsize=12];\n",
		theme.NodeFill, theme.NodeStroke, theme.Text)
	fmt.Fprintf(&buf, "  edge [color=%q, fontcolor=%q, fontsize=10];\n", theme.Edge, theme.Muted)
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", n.ID, nodeTitle(n), nodeDOTAttrs(n, theme))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Source, e.Target, edgeDOTAttrs(e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeDOTAttrs(n *flow.Node, theme Theme) string {
	switch n.Kind {
	case flow.KindStart:
		return fmt.Sprintf(", fillcolor=%q", theme.StartFill)
	case flow.KindSubmit:
		return fmt.Sprintf(", fillcolor=%q", theme.SubmitFill)
	}
	return ""
}

func edgeDOTAttrs(e flow.Edge) string {
	if e.Sequential {
		return " [weight=3]"
	}
	attrs := " [style=dashed"
	if e.Label != "" {
		attrs += fmt.Sprintf(", label=%q", e.Label)
	}
	return attrs + "]"
}
