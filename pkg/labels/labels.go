// Package labels keeps edge labels from stacking on top of each other.
//
// Every rendered edge label registers its bounding box with a [Registry];
// before painting, the host asks the registry for a per-label offset that
// moves the label clear of every other registered box. The registry is
// incremental: labels come and go as edges mount and unmount, and the whole
// registry is cleared on a full redraw.
//
// Collision testing uses the same padded-overlap primitive as the node
// overlap resolver, with label-scale constants.
package labels

import (
	"maps"
	"slices"
	"sync"

	"github.com/mlindgren/flowcanvas/pkg/geom"
)

const (
	// Padding is the clearance required between label boxes.
	Padding = 10

	// LabelHeight is the fixed box height used for collision testing.
	LabelHeight = 22

	// MinLabelWidth is the floor for a candidate label's collision width.
	MinLabelWidth = 60

	// maxIterations caps the push-and-retest loop in Offset.
	maxIterations = 8
)

// entry is one registered label box. x and y are the box center.
type entry struct {
	x, y   float64
	width  float64
	height float64
}

func (e entry) rect() geom.Rect {
	return geom.Rect{
		X:      e.x - e.width/2,
		Y:      e.y - e.height/2,
		Width:  e.width,
		Height: e.height,
	}
}

// Registry tracks the bounding boxes of currently rendered edge labels.
// One registry is shared across all edge labels of a canvas. Safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register records (or updates) the box of a rendered label. x and y are
// the box center in world coordinates.
func (r *Registry) Register(edgeID string, x, y, width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[edgeID] = entry{x: x, y: y, width: width, height: height}
}

// Unregister removes a label's box, typically when its edge unmounts.
func (r *Registry) Unregister(edgeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, edgeID)
}

// Len reports the number of registered labels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops every registered label. Called on full redraw.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]entry)
}

// Offset computes the displacement that moves the label for edgeID clear of
// every other registered label. baseX and baseY are the label's natural
// center (usually the edge midpoint); labelWidth is its rendered width,
// floored at MinLabelWidth for collision purposes.
//
// The candidate box is tested against every other entry; on the first
// collision the label is pushed away from the colliding box's center, a
// full label height plus padding vertically, or horizontally instead when
// the horizontal overlap is the smaller of the two, then re-tested. The
// loop gives up after a fixed number of iterations and returns the best
// offset found, which may still collide in pathological pile-ups.
func (r *Registry) Offset(edgeID string, baseX, baseY, labelWidth float64) geom.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	width := max(labelWidth, MinLabelWidth)
	var offset geom.Point

	for range maxIterations {
		candidate := entry{
			x:      baseX + offset.X,
			y:      baseY + offset.Y,
			width:  width,
			height: LabelHeight,
		}

		collider, ok := r.firstCollision(edgeID, candidate)
		if !ok {
			break
		}

		cr := candidate.rect().Inflate(Padding)
		or := collider.rect().Inflate(Padding)
		overlapX := geom.OverlapX(cr, or)
		overlapY := geom.OverlapY(cr, or)

		if overlapX < overlapY {
			step := overlapX + Padding
			if candidate.x < collider.x {
				offset.X -= step
			} else {
				offset.X += step
			}
		} else {
			step := float64(LabelHeight + Padding)
			if candidate.y < collider.y {
				offset.Y -= step
			} else {
				offset.Y += step
			}
		}
	}
	return offset
}

// firstCollision returns the first registered box (other than the label's
// own entry) that overlaps the candidate. Entries are scanned in sorted ID
// order so results are deterministic.
func (r *Registry) firstCollision(edgeID string, candidate entry) (entry, bool) {
	for _, id := range slices.Sorted(maps.Keys(r.entries)) {
		if id == edgeID {
			continue
		}
		e := r.entries[id]
		if geom.Overlaps(candidate.rect(), e.rect(), Padding) {
			return e, true
		}
	}
	return entry{}, false
}
