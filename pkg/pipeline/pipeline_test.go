package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/layout"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

func testDocument() flow.Document {
	return flow.Document{
		Name: "intake",
		Nodes: []flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "q1", Kind: flow.KindBlock, Block: &flow.BlockContent{Type: flow.BlockTypeText, Label: "Name"}},
			{ID: "submit", Kind: flow.KindSubmit},
		},
		Edges: []flow.Edge{
			{Source: "start", Target: "q1", Sequential: true},
			{Source: "q1", Target: "submit", Sequential: true},
		},
	}
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return NewRunner(c, nil, store.NewMemoryStore(), nil)
}

func TestOptionsValidation(t *testing.T) {
	doc := testDocument()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no source", Options{}, true},
		{"two sources", Options{Path: "a.json", DocumentID: "b"}, true},
		{"bad document id", Options{DocumentID: "../escape"}, true},
		{"bad format", Options{Document: &doc, Formats: []string{"pdf"}}, true},
		{"bad theme", Options{Document: &doc, Theme: "sepia"}, true},
		{"document only", Options{Document: &doc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	doc := testDocument()
	opts := Options{Document: &doc}
	require.NoError(t, opts.ValidateAndSetDefaults())

	if opts.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", opts.Namespace, DefaultNamespace)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", opts.Theme, DefaultTheme)
	}
	if opts.Config == (layout.Config{}) {
		t.Error("Config not defaulted")
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestGraphHashIgnoresPositions(t *testing.T) {
	g1, err := testDocument().Graph()
	require.NoError(t, err)
	before := GraphHash(g1)

	for i, n := range g1.Nodes() {
		n.Position = geom.Point{X: float64(100 * i), Y: 50}
	}
	if after := GraphHash(g1); after != before {
		t.Error("GraphHash changed after positioning")
	}

	// Content changes do invalidate.
	doc := testDocument()
	doc.Nodes[1].Block.Label = "Full name"
	g2, err := doc.Graph()
	require.NoError(t, err)
	if GraphHash(g2) == before {
		t.Error("GraphHash unchanged after label edit")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.flow.json")
	require.NoError(t, flow.WriteDocumentFile(testDocument(), path))

	r := testRunner(t)
	defer r.Close()

	doc, hit, err := r.LoadWithCacheInfo(context.Background(), Options{Path: path})
	require.NoError(t, err)
	if hit {
		t.Error("file load reported a cache hit")
	}
	if doc.Name != "intake" || len(doc.Nodes) != 3 {
		t.Errorf("loaded %s/%d nodes, want intake/3", doc.Name, len(doc.Nodes))
	}
}

func TestLoadFromStoreCaches(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	defer r.Close()

	stored, err := r.Store.Put(ctx, testDocument())
	require.NoError(t, err)
	opts := Options{DocumentID: stored.ID}

	_, hit, err := r.LoadWithCacheInfo(ctx, opts)
	require.NoError(t, err)
	if hit {
		t.Error("first load reported a cache hit")
	}

	doc, hit, err := r.LoadWithCacheInfo(ctx, opts)
	require.NoError(t, err)
	if !hit {
		t.Error("second load missed the cache")
	}
	if doc.Name != "intake" {
		t.Errorf("cached load Name = %q, want intake", doc.Name)
	}

	// Refresh bypasses the cache.
	_, hit, err = r.LoadWithCacheInfo(ctx, Options{DocumentID: stored.ID, Refresh: true})
	require.NoError(t, err)
	if hit {
		t.Error("refresh load reported a cache hit")
	}
}

func TestLoadMissingDocument(t *testing.T) {
	r := testRunner(t)
	defer r.Close()

	_, _, err := r.LoadWithCacheInfo(context.Background(), Options{DocumentID: "nope"})
	if err == nil {
		t.Fatal("load of missing document succeeded")
	}
}

func TestComputeLayoutCacheHit(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	defer r.Close()

	g, err := testDocument().Graph()
	require.NoError(t, err)

	opts := Options{Config: layout.DefaultConfig()}
	want := &layout.Result{
		Positions: map[string]geom.Point{
			"start":  {X: 80, Y: 94},
			"q1":     {X: 440, Y: 60},
			"submit": {X: 960, Y: 94},
		},
	}
	data, err := marshalLayout(want)
	require.NoError(t, err)
	key := r.Keyer.LayoutKey(GraphHash(g), opts.LayoutKeyOpts())
	require.NoError(t, r.Cache.Set(ctx, key, data, 0))

	got, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	require.NoError(t, err)
	if !hit {
		t.Fatal("seeded layout missed the cache")
	}
	if got.Positions["q1"] != want.Positions["q1"] {
		t.Errorf("cached q1 = %v, want %v", got.Positions["q1"], want.Positions["q1"])
	}
}

func TestRenderArtifacts(t *testing.T) {
	ctx := context.Background()
	r := testRunner(t)
	defer r.Close()

	g, err := testDocument().Graph()
	require.NoError(t, err)
	res := &layout.Result{
		Positions: map[string]geom.Point{
			"start":  {X: 80, Y: 94},
			"q1":     {X: 440, Y: 60},
			"submit": {X: 960, Y: 94},
		},
	}
	res.Apply(g)

	opts := Options{Formats: []string{"svg", "dot", "json"}}
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, g, res, "intake", opts)
	require.NoError(t, err)
	if hit {
		t.Error("first render reported a cache hit")
	}
	if len(artifacts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(artifacts))
	}
	if !strings.HasPrefix(string(artifacts["svg"]), "<svg") {
		t.Error("svg artifact does not start with <svg")
	}
	if !strings.Contains(string(artifacts["dot"]), "digraph flow") {
		t.Error("dot artifact missing digraph header")
	}

	_, hit, err = r.RenderWithCacheInfo(ctx, g, res, "intake", opts)
	require.NoError(t, err)
	if !hit {
		t.Error("second render missed the cache")
	}

	_, hit, err = r.RenderWithCacheInfo(ctx, g, res, "intake", Options{
		Formats: []string{"svg", "dot", "json"}, Refresh: true,
	})
	require.NoError(t, err)
	if hit {
		t.Error("refresh render reported a cache hit")
	}
}

func TestRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Store == nil || r.Logger == nil {
		t.Error("NewRunner left a nil backend")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("layout engine is slow under -short")
	}

	ctx := context.Background()
	r := testRunner(t)
	defer r.Close()

	stored, err := r.Store.Put(ctx, testDocument())
	require.NoError(t, err)
	opts := Options{DocumentID: stored.ID, Formats: []string{"svg", "json"}}

	result, err := r.Execute(ctx, opts)
	require.NoError(t, err)

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %d nodes/%d edges, want 3/2", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if len(result.Layout.Positions) != 3 {
		t.Errorf("got %d positions, want 3", len(result.Layout.Positions))
	}
	if len(result.Artifacts) != 2 {
		t.Errorf("got %d artifacts, want 2", len(result.Artifacts))
	}

	// Positions were applied back onto the graph.
	q1, ok := result.Graph.Node("q1")
	require.True(t, ok)
	if q1.Position == (geom.Point{}) {
		t.Error("q1 position not applied")
	}

	// A second run over the unchanged document is fully cached.
	again, err := r.Execute(ctx, Options{DocumentID: stored.ID, Formats: []string{"svg", "json"}})
	require.NoError(t, err)
	if !again.CacheInfo.DocumentHit || !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want all hits", again.CacheInfo)
	}
}
