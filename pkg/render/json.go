package render

import "github.com/mlindgren/flowcanvas/pkg/flow"

// JSON serializes the positioned graph as a flow document.
func JSON(g *flow.Graph, name string) ([]byte, error) {
	return flow.MarshalDocument(flow.FromGraph(g, name))
}
