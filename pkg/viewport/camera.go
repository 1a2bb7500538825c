package viewport

import (
	"fmt"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

// Fit zoom clamps. Fitting a single small node should not zoom past
// readable scale, and fitting a huge graph should not zoom out to nothing.
const (
	fitMinZoom = 0.1
	fitMaxZoom = 1.5
)

// DefaultFitPadding is the world-unit margin left around fitted content.
const DefaultFitPadding = 50

// Camera computes the transforms that center or fit graph content in the
// host container. It keeps a cursor into the block order for
// FocusNext/FocusPrev walking. Not safe for concurrent use.
type Camera struct {
	graph     *flow.Graph
	container geom.Size
	sizeFor   func(*flow.Node) geom.Size
	cursor    int
}

// NewCamera creates a camera for the graph. sizeFor may be nil, in which
// case the node's measured size is used.
func NewCamera(g *flow.Graph, container geom.Size, sizeFor func(*flow.Node) geom.Size) *Camera {
	if sizeFor == nil {
		sizeFor = func(n *flow.Node) geom.Size { return n.SizeOrZero() }
	}
	return &Camera{graph: g, container: container, sizeFor: sizeFor, cursor: -1}
}

// SetContainer updates the container pixel size used by later computations.
func (c *Camera) SetContainer(s geom.Size) { c.container = s }

// FocusNode returns the transform that centers the node at the given zoom.
func (c *Camera) FocusNode(id string, zoom float64) (Transform, error) {
	n, ok := c.graph.Node(id)
	if !ok {
		return Transform{}, fmt.Errorf("focus: unknown node %q", id)
	}
	if zoom <= 0 {
		zoom = 1
	}
	return centerOn(geom.RectAt(n.Position, c.sizeFor(n)).Center(), zoom, c.container), nil
}

// FitNodes returns the transform that fits the given nodes in the
// container with the padding (world units) around them.
func (c *Camera) FitNodes(ids []string, padding float64) (Transform, error) {
	var bounds geom.Rect
	found := false
	for _, id := range ids {
		n, ok := c.graph.Node(id)
		if !ok {
			return Transform{}, fmt.Errorf("fit: unknown node %q", id)
		}
		r := geom.RectAt(n.Position, c.sizeFor(n))
		if !found {
			bounds = r
			found = true
			continue
		}
		bounds = bounds.Union(r)
	}
	if !found {
		return Transform{}, fmt.Errorf("fit: no nodes given")
	}
	return fitRect(bounds, padding, c.container), nil
}

// FitAll returns the transform that fits the whole graph.
func (c *Camera) FitAll(padding float64) (Transform, error) {
	nodes := c.graph.Nodes()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return c.FitNodes(ids, padding)
}

// FocusNext advances the cursor to the next block in flow order (wrapping)
// and returns the centering transform together with the focused block ID.
func (c *Camera) FocusNext(zoom float64) (Transform, string, error) {
	return c.step(1, zoom)
}

// FocusPrev moves the cursor to the previous block in flow order
// (wrapping).
func (c *Camera) FocusPrev(zoom float64) (Transform, string, error) {
	return c.step(-1, zoom)
}

func (c *Camera) step(delta int, zoom float64) (Transform, string, error) {
	blocks := c.graph.BlockIDs()
	if len(blocks) == 0 {
		return Transform{}, "", fmt.Errorf("focus: graph has no blocks")
	}
	if c.cursor < 0 {
		// First step: next starts at the first block, prev at the last.
		if delta > 0 {
			c.cursor = 0
		} else {
			c.cursor = len(blocks) - 1
		}
	} else {
		c.cursor = ((c.cursor+delta)%len(blocks) + len(blocks)) % len(blocks)
	}
	id := blocks[c.cursor]
	tr, err := c.FocusNode(id, zoom)
	return tr, id, err
}

// centerOn computes the pan that places the world point at the container
// center for the given zoom: pan = containerCenter - world * zoom.
func centerOn(world geom.Point, zoom float64, container geom.Size) Transform {
	return Transform{
		X:    container.Width/2 - world.X*zoom,
		Y:    container.Height/2 - world.Y*zoom,
		Zoom: zoom,
	}
}

// fitRect computes the zoom that fits the padded rect in the container,
// clamped to the fit range, centered.
func fitRect(r geom.Rect, padding float64, container geom.Size) Transform {
	padded := r.Inflate(padding)
	zoom := fitMaxZoom
	if padded.Width > 0 {
		zoom = min(zoom, container.Width/padded.Width)
	}
	if padded.Height > 0 {
		zoom = min(zoom, container.Height/padded.Height)
	}
	zoom = max(zoom, fitMinZoom)
	return centerOn(padded.Center(), zoom, container)
}
