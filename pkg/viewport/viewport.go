// Package viewport tracks which flow nodes are worth rendering.
//
// A host canvas shows a pan/zoomed window onto the world-coordinate flow
// graph. The [Tracker] converts the current transform and container size
// into world-space viewport bounds, classifies every node against them
// (visible, nearby, or neither), and exposes a zoom-gated "render details"
// flag. Hosts unmount nodes that are neither visible nor nearby and skip
// expensive content below the detail zoom threshold, which is what keeps
// large graphs interactive.
//
// [Camera] layers focus and fit-to-view conveniences on top: it computes
// the transform that centers a node, fits a node set, or walks the blocks
// in flow order.
package viewport

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

const (
	// DefaultBuffer extends the viewport on all sides for the "nearby"
	// classification, in world units.
	DefaultBuffer = 200

	// DefaultDetailZoom is the zoom below which hosts skip per-node detail
	// rendering.
	DefaultDetailZoom = 0.5

	// DefaultDebounce coalesces bursts of pan/zoom events into one
	// reclassification.
	DefaultDebounce = 50 * time.Millisecond
)

// Transform is the host canvas pan/zoom state. X and Y are the pan offset
// in screen pixels; Zoom is the scale factor (1 = 100%).
type Transform struct {
	X    float64
	Y    float64
	Zoom float64
}

// Options configures a [Tracker]. Zero values take the package defaults.
type Options struct {
	Buffer     float64
	DetailZoom float64
	Debounce   time.Duration

	// SizeFor supplies node sizes for classification. Nil means the node's
	// measured size (zero when unmeasured).
	SizeFor func(*flow.Node) geom.Size
}

func (o *Options) setDefaults() {
	if o.Buffer == 0 {
		o.Buffer = DefaultBuffer
	}
	if o.DetailZoom == 0 {
		o.DetailZoom = DefaultDetailZoom
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.SizeFor == nil {
		o.SizeFor = func(n *flow.Node) geom.Size { return n.SizeOrZero() }
	}
}

// Visibility is one node's classification snapshot.
type Visibility struct {
	ID      string
	Visible bool
	Nearby  bool
	// Distance is from the node center to the viewport center, in world
	// units.
	Distance float64
}

// Tracker classifies graph nodes against the current viewport.
// Safe for concurrent use; reclassification after SetTransform or
// SetContainer is debounced.
type Tracker struct {
	graph *flow.Graph
	opts  Options

	mu        sync.Mutex
	transform Transform
	container geom.Size
	bounds    geom.Rect
	extended  geom.Rect
	visible   map[string]bool
	nearby    map[string]bool
	timer     *time.Timer
}

// NewTracker creates a tracker for the graph and runs one immediate
// classification, so queries are valid before the first pan/zoom event.
func NewTracker(g *flow.Graph, container geom.Size, opts Options) *Tracker {
	opts.setDefaults()
	t := &Tracker{
		graph:     g,
		opts:      opts,
		transform: Transform{Zoom: 1},
		container: container,
	}
	t.Recompute()
	return t
}

// SetTransform records a new pan/zoom state and schedules a debounced
// reclassification. Non-positive zoom values are ignored.
func (t *Tracker) SetTransform(tr Transform) {
	if tr.Zoom <= 0 {
		return
	}
	t.mu.Lock()
	t.transform = tr
	t.mu.Unlock()
	t.scheduleRecompute()
}

// SetContainer records a new container pixel size and schedules a debounced
// reclassification.
func (t *Tracker) SetContainer(s geom.Size) {
	t.mu.Lock()
	t.container = s
	t.mu.Unlock()
	t.scheduleRecompute()
}

func (t *Tracker) scheduleRecompute() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.opts.Debounce, t.Recompute)
}

// Stop cancels any pending reclassification.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Recompute reclassifies every node immediately.
func (t *Tracker) Recompute() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.bounds = worldBounds(t.transform, t.container)
	t.extended = t.bounds.Inflate(t.opts.Buffer)

	t.visible = make(map[string]bool)
	t.nearby = make(map[string]bool)
	for _, n := range t.graph.Nodes() {
		box := geom.RectAt(n.Position, t.opts.SizeFor(n))
		switch {
		case t.bounds.Intersects(box):
			t.visible[n.ID] = true
		case t.extended.Intersects(box):
			t.nearby[n.ID] = true
		}
	}
}

// worldBounds converts the screen-space transform into world coordinates:
// world = (screen - pan) / zoom.
func worldBounds(tr Transform, container geom.Size) geom.Rect {
	return geom.Rect{
		X:      -tr.X / tr.Zoom,
		Y:      -tr.Y / tr.Zoom,
		Width:  container.Width / tr.Zoom,
		Height: container.Height / tr.Zoom,
	}
}

// Bounds returns the strict viewport bounds in world coordinates.
func (t *Tracker) Bounds() geom.Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bounds
}

// ExtendedBounds returns the buffered bounds used for the nearby
// classification.
func (t *Tracker) ExtendedBounds() geom.Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.extended
}

// VisibleNodeIDs returns the IDs of nodes intersecting the strict bounds,
// sorted.
func (t *Tracker) VisibleNodeIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.visible)
}

// NearbyNodeIDs returns the IDs of nodes intersecting only the buffered
// bounds, sorted.
func (t *Tracker) NearbyNodeIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.nearby)
}

// IsNodeVisible reports whether the node intersects the strict bounds.
func (t *Tracker) IsNodeVisible(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible[id]
}

// IsNodeNearby reports whether the node is in the buffer zone only.
func (t *Tracker) IsNodeNearby(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nearby[id]
}

// ShouldRenderDetails reports whether the current zoom is at or above the
// detail threshold.
func (t *Tracker) ShouldRenderDetails() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transform.Zoom >= t.opts.DetailZoom
}

// NodeVisibility returns every node's classification, sorted by distance
// from the viewport center (nearest first).
func (t *Tracker) NodeVisibility() []Visibility {
	t.mu.Lock()
	defer t.mu.Unlock()

	center := t.bounds.Center()
	out := make([]Visibility, 0, t.graph.NodeCount())
	for _, n := range t.graph.Nodes() {
		box := geom.RectAt(n.Position, t.opts.SizeFor(n))
		out = append(out, Visibility{
			ID:       n.ID,
			Visible:  t.visible[n.ID],
			Nearby:   t.nearby[n.ID],
			Distance: distance(center, box.Center()),
		})
	}
	slices.SortStableFunc(out, func(a, b Visibility) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	return out
}

// NodesByProximity returns all node IDs ordered nearest-first from the
// viewport center.
func (t *Tracker) NodesByProximity() []string {
	info := t.NodeVisibility()
	ids := make([]string, len(info))
	for i, v := range info {
		ids[i] = v.ID
	}
	return ids
}

func distance(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
