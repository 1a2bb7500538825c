package flow_test

import (
	"fmt"

	"github.com/mlindgren/flowcanvas/pkg/flow"
)

func ExampleGraph_basic() {
	// Build a minimal flow: start → question → submit
	g := flow.New()
	_ = g.AddNode(flow.Node{ID: "start", Kind: flow.KindStart})
	_ = g.AddNode(flow.Node{ID: "q1", Kind: flow.KindBlock, Block: &flow.BlockContent{Type: flow.BlockTypeText, Label: "Name"}})
	_ = g.AddNode(flow.Node{ID: "submit", Kind: flow.KindSubmit})
	_ = g.AddEdge(flow.Edge{Source: "start", Target: "q1", Sequential: true})
	_ = g.AddEdge(flow.Edge{Source: "q1", Target: "submit", Sequential: true})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Blocks:", g.BlockCount())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Blocks: 1
}

func ExampleGraph_ApplyDrop() {
	g := flow.New()
	_ = g.AddNode(flow.Node{ID: "start", Kind: flow.KindStart})
	_ = g.AddNode(flow.Node{ID: "submit", Kind: flow.KindSubmit})
	_ = g.AddEdge(flow.Edge{Source: "start", Target: "submit", Sequential: true})

	// A block dragged onto the first drop zone becomes a new node spliced
	// into the sequential spine.
	id, _ := g.ApplyDrop(flow.DropEvent{BlockType: flow.BlockTypeSelect, InsertIndex: 0})

	fmt.Println("Inserted:", id)
	fmt.Println("Children of start:", g.Children("start"))
	// Output:
	// Inserted: select-1
	// Children of start: [select-1]
}
