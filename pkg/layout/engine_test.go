package layout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/observability"
)

// countingHooks counts completed layout runs.
type countingHooks struct {
	observability.NoopLayoutHooks
	runs atomic.Int32
}

func (h *countingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.runs.Add(1)
}

// blockingHooks holds a layout run open until released.
type blockingHooks struct {
	observability.NoopLayoutHooks
	entered chan struct{}
	release chan struct{}
}

func (h *blockingHooks) OnLayoutStart(context.Context, int, int) {
	close(h.entered)
	<-h.release
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(nil, EngineOptions{}); err == nil {
		t.Error("NewEngine(nil graph) succeeded, want error")
	}
	if _, err := NewEngine(flow.New(), EngineOptions{Debounce: -time.Second}); err == nil {
		t.Error("NewEngine(negative debounce) succeeded, want error")
	}

	e, err := NewEngine(flow.New(), EngineOptions{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.opts.Debounce != DefaultDebounce {
		t.Errorf("default debounce = %v, want %v", e.opts.Debounce, DefaultDebounce)
	}
	if e.opts.Config.MarginX != DefaultConfig().MarginX {
		t.Error("zero config not replaced with defaults")
	}
}

func TestApplyDebouncedCollapsesBursts(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	// An empty graph keeps the run instant (the layered engine is never
	// invoked for zero nodes).
	e, err := NewEngine(flow.New(), EngineOptions{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	for range 3 {
		e.ApplyDebounced(context.Background())
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if got := hooks.runs.Load(); got != 1 {
		t.Errorf("burst of 3 requests ran %d layouts, want 1", got)
	}
}

func TestApplyDropsConcurrentRequests(t *testing.T) {
	hooks := &blockingHooks{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	e, err := NewEngine(flow.New(), EngineOptions{})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := e.Apply(context.Background()); err != nil {
			t.Errorf("Apply: %v", err)
		}
	}()

	<-hooks.entered
	res, err := e.Apply(context.Background())
	if res != nil || err != nil {
		t.Errorf("concurrent Apply = (%v, %v), want (nil, nil)", res, err)
	}

	close(hooks.release)
	<-done
}

func TestStopCancelsPendingLayout(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	e, err := NewEngine(flow.New(), EngineOptions{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	e.ApplyDebounced(context.Background())
	e.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := hooks.runs.Load(); got != 0 {
		t.Errorf("layout ran %d times after Stop, want 0", got)
	}
}

// TestEngineApplyPositionsGraph runs the real layered engine; skipped in
// short mode.
func TestEngineApplyPositionsGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz layout in short mode")
	}

	g := flow.New()
	for _, n := range []flow.Node{
		{ID: "start", Kind: flow.KindStart},
		{ID: "q1", Kind: flow.KindBlock, Block: &flow.BlockContent{Type: flow.BlockTypeText, Label: "Name"}},
		{ID: "submit", Kind: flow.KindSubmit},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []flow.Edge{
		{Source: "start", Target: "q1", Sequential: true},
		{Source: "q1", Target: "submit", Sequential: true},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	var applied *Result
	e, err := NewEngine(g, EngineOptions{OnApplied: func(r *Result) { applied = r }})
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied != res {
		t.Error("OnApplied not called with the result")
	}

	start, _ := g.Node("start")
	q1, _ := g.Node("q1")
	submit, _ := g.Node("submit")
	if !(start.Position.X < q1.Position.X && q1.Position.X < submit.Position.X) {
		t.Errorf("positions not left-to-right: %+v, %+v, %+v",
			start.Position, q1.Position, submit.Position)
	}
	if start.Position.X != DefaultConfig().MarginX {
		t.Errorf("start x = %v, want margin %v", start.Position.X, DefaultConfig().MarginX)
	}
}
