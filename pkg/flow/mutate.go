package flow

import (
	"fmt"
)

// DropEvent is the insertion request emitted when a block is dragged onto a
// drop zone between two steps of the sequential spine. InsertIndex is the
// position among block nodes (0 inserts directly after start); an index past
// the last block appends before submit.
type DropEvent struct {
	BlockType   BlockType `json:"blockType"`
	InsertIndex int       `json:"insertIndex"`
}

// AddBlock appends a block node to the end of the sequential spine,
// immediately before the submit node if one exists.
// Returns the new node's ID.
func (g *Graph) AddBlock(id string, content BlockContent) (string, error) {
	return g.insertBlock(id, content, len(g.BlockIDs()))
}

// ApplyDrop inserts a new block node of the event's type at the event's
// insert index, rewiring the sequential spine around it. The new node gets
// a generated ID derived from the block type.
func (g *Graph) ApplyDrop(ev DropEvent) (string, error) {
	id := g.freshID(string(ev.BlockType))
	return g.insertBlock(id, BlockContent{Type: ev.BlockType}, ev.InsertIndex)
}

// InsertBlock inserts a block node at the given position among block nodes,
// splicing it into the sequential spine: the sequential edge that previously
// crossed the insertion point is replaced by two sequential edges through
// the new node. Conditional edges are left untouched.
func (g *Graph) InsertBlock(id string, content BlockContent, index int) (string, error) {
	return g.insertBlock(id, content, index)
}

func (g *Graph) insertBlock(id string, content BlockContent, index int) (string, error) {
	if id == "" {
		return "", ErrInvalidNodeID
	}
	if _, exists := g.nodes[id]; exists {
		return "", ErrDuplicateNodeID
	}

	blocks := g.BlockIDs()
	if index < 0 {
		index = 0
	}
	if index > len(blocks) {
		index = len(blocks)
	}

	// Determine the spine neighbors the new node lands between.
	var prevID, nextID string
	if index == 0 {
		if start, ok := g.Start(); ok {
			prevID = start.ID
		}
	} else {
		prevID = blocks[index-1]
	}
	if index < len(blocks) {
		nextID = blocks[index]
	} else if submit := g.firstOfKind(KindSubmit); submit != "" {
		nextID = submit
	}

	if err := g.AddNode(Node{ID: id, Kind: KindBlock, Block: &content}); err != nil {
		return "", err
	}

	// Keep block order consistent with spine order: move the new ID from the
	// end of the insertion order to its spine position.
	g.reorderBlock(id, index)

	if prevID != "" {
		if nextID != "" && g.hasSequentialEdge(prevID, nextID) {
			g.RemoveEdge(prevID, nextID)
		}
		if err := g.AddEdge(Edge{Source: prevID, Target: id, Sequential: true}); err != nil {
			return "", fmt.Errorf("wire spine into %s: %w", id, err)
		}
	}
	if nextID != "" {
		if err := g.AddEdge(Edge{Source: id, Target: nextID, Sequential: true}); err != nil {
			return "", fmt.Errorf("wire spine out of %s: %w", id, err)
		}
	}

	return id, nil
}

// Connect adds a conditional edge between two blocks, labeled with the
// rule's condition. This is how navigation rules materialize in the graph.
func (g *Graph) Connect(source, target, label string) error {
	return g.AddEdge(Edge{Source: source, Target: target, Label: label})
}

// hasSequentialEdge reports whether a sequential edge source→target exists.
func (g *Graph) hasSequentialEdge(source, target string) bool {
	for _, e := range g.edges {
		if e.Source == source && e.Target == target && e.Sequential {
			return true
		}
	}
	return false
}

// firstOfKind returns the ID of the first node of the given kind in
// insertion order, or "".
func (g *Graph) firstOfKind(kind Kind) string {
	for _, id := range g.order {
		if g.nodes[id].Kind == kind {
			return id
		}
	}
	return ""
}

// reorderBlock moves id (assumed to be the last entry in the insertion
// order) so that it becomes the index-th block node.
func (g *Graph) reorderBlock(id string, index int) {
	// Remove from the tail.
	g.order = g.order[:len(g.order)-1]

	// Find the insertion-order position of the index-th block.
	pos := len(g.order)
	seen := 0
	for i, other := range g.order {
		if g.nodes[other].Kind != KindBlock {
			continue
		}
		if seen == index {
			pos = i
			break
		}
		seen++
	}
	// Past the last block: slot in before submit if present.
	if pos == len(g.order) {
		for i, other := range g.order {
			if g.nodes[other].Kind == KindSubmit {
				pos = i
				break
			}
		}
	}

	g.order = append(g.order[:pos], append([]string{id}, g.order[pos:]...)...)
}

// freshID derives an unused node ID from a prefix.
func (g *Graph) freshID(prefix string) string {
	if prefix == "" {
		prefix = "block"
	}
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		if _, exists := g.nodes[id]; !exists {
			return id
		}
	}
}
