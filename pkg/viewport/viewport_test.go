package viewport

import (
	"testing"
	"time"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

func trackerGraph(t *testing.T) *flow.Graph {
	t.Helper()
	g := flow.New()
	nodes := []flow.Node{
		{ID: "start", Kind: flow.KindStart, Position: geom.Point{X: 100, Y: 100}},
		{ID: "inside", Kind: flow.KindBlock, Position: geom.Point{X: 500, Y: 300}},
		{ID: "buffered", Kind: flow.KindBlock, Position: geom.Point{X: 1100, Y: 300}},
		{ID: "far", Kind: flow.KindBlock, Position: geom.Point{X: 1500, Y: 300}},
	}
	for _, n := range nodes {
		n.Measured = &geom.Size{Width: 80, Height: 40}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []flow.Edge{
		{Source: "start", Target: "inside", Sequential: true},
		{Source: "inside", Target: "buffered", Sequential: true},
		{Source: "buffered", Target: "far", Sequential: true},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

// Identity transform over a 1000x800 container: strict bounds
// {0,0,1000,800}, extended bounds inflated by the 200 buffer.
func TestTrackerClassification(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{})
	defer tr.Stop()

	if got := tr.Bounds(); got != (geom.Rect{X: 0, Y: 0, Width: 1000, Height: 800}) {
		t.Fatalf("Bounds() = %+v", got)
	}

	tests := []struct {
		id      string
		visible bool
		nearby  bool
	}{
		{"start", true, false},
		{"inside", true, false},
		{"buffered", false, true}, // in the buffer zone only
		{"far", false, false},     // beyond even the buffer
	}
	for _, tt := range tests {
		if got := tr.IsNodeVisible(tt.id); got != tt.visible {
			t.Errorf("IsNodeVisible(%s) = %v, want %v", tt.id, got, tt.visible)
		}
		if got := tr.IsNodeNearby(tt.id); got != tt.nearby {
			t.Errorf("IsNodeNearby(%s) = %v, want %v", tt.id, got, tt.nearby)
		}
	}

	if got := tr.VisibleNodeIDs(); len(got) != 2 {
		t.Errorf("VisibleNodeIDs() = %v, want 2 ids", got)
	}
	if got := tr.NearbyNodeIDs(); len(got) != 1 || got[0] != "buffered" {
		t.Errorf("NearbyNodeIDs() = %v, want [buffered]", got)
	}
}

func TestTrackerPanBringsNodesIn(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{Debounce: time.Millisecond})
	defer tr.Stop()

	// Pan left by 600px at zoom 1: world window becomes {600..1600}.
	tr.SetTransform(Transform{X: -600, Y: 0, Zoom: 1})
	tr.Recompute()

	if !tr.IsNodeVisible("far") {
		t.Error("far node should be visible after panning")
	}
	if tr.IsNodeVisible("start") {
		t.Error("start node should have left the viewport")
	}
}

func TestTrackerZoomWidensWorldWindow(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{})
	defer tr.Stop()

	// Zooming out to 0.5 doubles the world window: everything fits.
	tr.SetTransform(Transform{X: 0, Y: 0, Zoom: 0.5})
	tr.Recompute()

	if got := tr.Bounds(); got != (geom.Rect{X: 0, Y: 0, Width: 2000, Height: 1600}) {
		t.Errorf("Bounds() = %+v, want {0 0 2000 1600}", got)
	}
	if !tr.IsNodeVisible("far") {
		t.Error("far node should be visible zoomed out")
	}
	if !tr.ShouldRenderDetails() {
		t.Error("details should render at the threshold zoom")
	}

	tr.SetTransform(Transform{X: 0, Y: 0, Zoom: 0.4})
	if tr.ShouldRenderDetails() {
		t.Error("details should be suppressed below the zoom threshold")
	}
}

func TestTrackerDebounce(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{Debounce: 20 * time.Millisecond})
	defer tr.Stop()

	tr.SetTransform(Transform{X: -600, Y: 0, Zoom: 1})

	// Before the quiet period the old classification still stands.
	if tr.IsNodeVisible("far") {
		t.Error("classification updated before debounce elapsed")
	}

	time.Sleep(100 * time.Millisecond)
	if !tr.IsNodeVisible("far") {
		t.Error("classification not updated after debounce")
	}
}

func TestTrackerIgnoresBadZoom(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{})
	defer tr.Stop()

	tr.SetTransform(Transform{Zoom: 0})
	tr.Recompute()
	if got := tr.Bounds(); got != (geom.Rect{X: 0, Y: 0, Width: 1000, Height: 800}) {
		t.Errorf("Bounds() = %+v after zero-zoom transform, want unchanged", got)
	}
}

func TestNodesByProximity(t *testing.T) {
	tr := NewTracker(trackerGraph(t), geom.Size{Width: 1000, Height: 800}, Options{})
	defer tr.Stop()

	// Viewport center is (500,400); "inside" at (540,320) is nearest.
	got := tr.NodesByProximity()
	if len(got) != 4 || got[0] != "inside" {
		t.Errorf("NodesByProximity() = %v, want inside first", got)
	}
	if got[3] != "far" {
		t.Errorf("NodesByProximity() = %v, want far last", got)
	}
}
