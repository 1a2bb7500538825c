package layout

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/flow/analyze"
	"github.com/mlindgren/flowcanvas/pkg/observability"
)

// DefaultDebounce is the delay ApplyDebounced waits for further requests
// before actually running a layout.
const DefaultDebounce = 300 * time.Millisecond

// EngineOptions configures an [Engine].
type EngineOptions struct {
	// Config is the layout tuning table. Zero value means DefaultConfig.
	Config Config

	// Debounce is the quiet period for ApplyDebounced. Zero means
	// DefaultDebounce.
	Debounce time.Duration

	// Logger receives layout lifecycle logs. Nil means discard.
	Logger *log.Logger

	// OnApplied is called after a layout result has been written onto the
	// graph, on the goroutine that ran the layout. Hosts use it to refit
	// their camera. May be nil.
	OnApplied func(*Result)
}

// validateAndSetDefaults fills zero-value options in place.
func (o *EngineOptions) validateAndSetDefaults() error {
	if o.Config == (Config{}) {
		o.Config = DefaultConfig()
	}
	if o.Debounce < 0 {
		return errors.New("layout: negative debounce")
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Engine applies smart layouts to a live graph.
//
// It wraps [Compute] with the statefulness an interactive host needs:
// results are written back onto the graph under a lock, a layout requested
// while another is running is silently dropped, and ApplyDebounced collapses
// bursts of requests (a drag-drop insert followed by measurement updates)
// into a single run after a quiet period.
type Engine struct {
	graph *flow.Graph
	opts  EngineOptions

	mu       sync.Mutex // guards graph writes and the debounce timer
	timer    *time.Timer
	applying atomic.Bool
}

// NewEngine creates an engine for the graph.
func NewEngine(g *flow.Graph, opts EngineOptions) (*Engine, error) {
	if g == nil {
		return nil, errors.New("layout: nil graph")
	}
	if err := opts.validateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Engine{graph: g, opts: opts}, nil
}

// Apply computes a layout and writes the positions onto the graph.
//
// If another Apply is already in flight the call is dropped and returns
// (nil, nil): in an interactive host the in-flight run's debounced follow-up
// will pick up whatever changed, so a queued duplicate adds nothing. On
// error the graph keeps its existing positions.
func (e *Engine) Apply(ctx context.Context) (*Result, error) {
	if !e.applying.CompareAndSwap(false, true) {
		observability.Layout().OnLayoutDropped(ctx, "already applying")
		e.opts.Logger.Debug("layout request dropped", "reason", "already applying")
		return nil, nil
	}
	defer e.applying.Store(false)

	res, err := Compute(ctx, e.graph, e.opts.Config)
	if err != nil {
		e.opts.Logger.Error("layout failed, keeping existing positions", "error", err)
		return nil, err
	}

	e.mu.Lock()
	res.Apply(e.graph)
	e.mu.Unlock()

	e.opts.Logger.Debug("layout applied",
		"nodes", e.graph.NodeCount(),
		"complexity", res.Metrics.Complexity,
		"rank_sep", res.Spacing.RankSep,
		"node_sep", res.Spacing.NodeSep,
		"overlaps_resolved", res.OverlapsResolved,
		"duration", res.Duration,
	)

	if e.opts.OnApplied != nil {
		e.opts.OnApplied(res)
	}
	return res, nil
}

// ApplyDebounced schedules a layout after the configured quiet period.
// Each call resets the timer, so a burst of mutations produces one run.
func (e *Engine) ApplyDebounced(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.opts.Debounce, func() {
		_, _ = e.Apply(ctx)
	})
}

// Stop cancels any pending debounced layout.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Metrics analyzes the engine's graph as it currently stands.
func (e *Engine) Metrics() analyze.Metrics { return analyze.Analyze(e.graph) }

// Clusters groups the engine's graph nodes by BFS rank.
func (e *Engine) Clusters() []analyze.Cluster { return analyze.Clusters(e.graph) }
