package overlap

import (
	"testing"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

func buildGraph(t *testing.T, nodes []flow.Node, edges []flow.Edge) *flow.Graph {
	t.Helper()
	g := flow.New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func fixedSize(*flow.Node) geom.Size { return geom.Size{Width: 100, Height: 50} }

func TestHasOverlaps(t *testing.T) {
	g := buildGraph(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "q1", Kind: flow.KindBlock},
		},
		[]flow.Edge{{Source: "start", Target: "q1", Sequential: true}},
	)

	tests := []struct {
		name string
		q1   geom.Point
		want bool
	}{
		{"coincident", geom.Point{X: 0, Y: 0}, true},
		{"within padding", geom.Point{X: 110, Y: 0}, true},
		{"clear of padding", geom.Point{X: 120, Y: 0}, false},
		{"far apart", geom.Point{X: 500, Y: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			positions := map[string]geom.Point{"start": {}, "q1": tt.q1}
			if got := HasOverlaps(g, positions, fixedSize); got != tt.want {
				t.Errorf("HasOverlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveClearsOverlaps(t *testing.T) {
	// Three same-rank siblings piled on top of each other, plus their parent.
	g := buildGraph(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "a", Kind: flow.KindBlock},
			{ID: "b", Kind: flow.KindBlock},
			{ID: "c", Kind: flow.KindBlock},
		},
		[]flow.Edge{
			{Source: "start", Target: "a", Sequential: true},
			{Source: "start", Target: "b"},
			{Source: "start", Target: "c"},
		},
	)
	positions := map[string]geom.Point{
		"start": {X: 0, Y: 100},
		"a":     {X: 300, Y: 100},
		"b":     {X: 300, Y: 110},
		"c":     {X: 300, Y: 120},
	}

	resolved := Resolve(g, positions, fixedSize, 0)

	if HasOverlaps(g, resolved, fixedSize) {
		t.Errorf("overlaps remain after Resolve: %+v", resolved)
	}
	// Input untouched.
	if positions["b"] != (geom.Point{X: 300, Y: 110}) {
		t.Error("Resolve mutated its input positions")
	}
}

func TestResolveKeepsRankOrder(t *testing.T) {
	// The child starts left of its parent; horizontal resolution must leave
	// the smaller-rank node on the left.
	g := buildGraph(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "q1", Kind: flow.KindBlock},
		},
		[]flow.Edge{{Source: "start", Target: "q1", Sequential: true}},
	)
	// Tall narrow boxes keep the vertical overlap large, forcing the
	// resolver down the horizontal path.
	size := func(*flow.Node) geom.Size { return geom.Size{Width: 100, Height: 400} }
	positions := map[string]geom.Point{
		"start": {X: 40, Y: 0},
		"q1":    {X: 0, Y: 10},
	}

	resolved := Resolve(g, positions, size, 0)

	if HasOverlaps(g, resolved, size) {
		t.Fatalf("overlaps remain after Resolve: %+v", resolved)
	}
	if resolved["start"].X >= resolved["q1"].X {
		t.Errorf("rank order lost: start.x = %v, q1.x = %v",
			resolved["start"].X, resolved["q1"].X)
	}
}

func TestResolveIdempotentOnCleanLayout(t *testing.T) {
	g := buildGraph(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "q1", Kind: flow.KindBlock},
		},
		[]flow.Edge{{Source: "start", Target: "q1", Sequential: true}},
	)
	positions := map[string]geom.Point{
		"start": {X: 0, Y: 0},
		"q1":    {X: 300, Y: 0},
	}

	resolved := Resolve(g, positions, fixedSize, 0)
	for id, p := range positions {
		if resolved[id] != p {
			t.Errorf("clean layout moved: %s %+v -> %+v", id, p, resolved[id])
		}
	}
}

func TestResolveIterationCap(t *testing.T) {
	// A single iteration cannot fully separate a deep pile; the call must
	// still terminate and return.
	g := buildGraph(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "a", Kind: flow.KindBlock},
			{ID: "b", Kind: flow.KindBlock},
			{ID: "c", Kind: flow.KindBlock},
			{ID: "d", Kind: flow.KindBlock},
		},
		[]flow.Edge{
			{Source: "start", Target: "a"},
			{Source: "start", Target: "b"},
			{Source: "start", Target: "c"},
			{Source: "start", Target: "d"},
		},
	)
	positions := map[string]geom.Point{
		"start": {}, "a": {}, "b": {}, "c": {}, "d": {},
	}

	resolved := Resolve(g, positions, fixedSize, 1)
	if len(resolved) != 5 {
		t.Fatalf("len(resolved) = %d, want 5", len(resolved))
	}
}
