// Package geom provides the small set of geometric primitives shared by the
// layout pipeline, the edge-label collision registry, and the viewport
// tracker.
//
// All coordinates are in world (canvas) units with the origin at the top-left
// and the y axis growing downward, matching the position contract of
// [github.com/mlindgren/flowcanvas/pkg/flow.Node].
package geom

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in world units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the size has no area.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectAt constructs a rectangle from a top-left point and a size.
func RectAt(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the x coordinate of the rectangle's center.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the y coordinate of the rectangle's center.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{X: r.CenterX(), Y: r.CenterY()} }

// Inflate returns a copy of the rectangle grown by pad on every side.
// A negative pad shrinks the rectangle.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{
		X:      r.X - pad,
		Y:      r.Y - pad,
		Width:  r.Width + 2*pad,
		Height: r.Height + 2*pad,
	}
}

// Intersects reports whether the two rectangles share any area.
// Touching edges do not count as an intersection.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X &&
		r.Y < o.Bottom() && r.Bottom() > o.Y
}

// Contains reports whether the point lies inside the rectangle
// (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() &&
		p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	right := max(r.Right(), o.Right())
	bottom := max(r.Bottom(), o.Bottom())
	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Overlaps reports whether two rectangles intersect after both have been
// inflated by pad. This is the single overlap predicate used by the overlap
// resolver, the label registry, and tests: two boxes "overlap" when their
// padded extents intersect on both axes simultaneously.
func Overlaps(a, b Rect, pad float64) bool {
	return a.Inflate(pad).Intersects(b.Inflate(pad))
}

// OverlapX returns the horizontal overlap extent between the two rectangles,
// or a non-positive value when they are disjoint on the x axis.
func OverlapX(a, b Rect) float64 {
	return min(a.Right(), b.Right()) - max(a.X, b.X)
}

// OverlapY returns the vertical overlap extent between the two rectangles,
// or a non-positive value when they are disjoint on the y axis.
func OverlapY(a, b Rect) float64 {
	return min(a.Bottom(), b.Bottom()) - max(a.Y, b.Y)
}
