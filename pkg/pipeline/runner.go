package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/layout"
	"github.com/mlindgren/flowcanvas/pkg/observability"
	"github.com/mlindgren/flowcanvas/pkg/render"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its backends - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner with the given backends.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If st is nil, an in-memory store is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	doc, docHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	g, err := doc.Graph()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Graph = g
	result.GraphHash = GraphHash(g)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.DocumentHit = docHit

	r.Logger.Info("loaded document",
		"name", doc.Name,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Apply(g)
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"complexity", res.Metrics.Complexity,
		"overlaps_resolved", res.OverlapsResolved,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, res, doc.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads a document with caching and returns cache hit info.
// Only store lookups are cached; file and pre-loaded documents are returned
// as-is.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (flow.Document, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return flow.Document{}, false, err
	}
	r.applyLogger(&opts)

	if opts.Document != nil {
		return *opts.Document, false, nil
	}
	if opts.Path != "" {
		doc, err := flow.ReadDocumentFile(opts.Path)
		return doc, false, err
	}

	cacheKey := r.Keyer.DocumentKey(opts.Namespace, opts.DocumentID)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			doc, err := flow.UnmarshalDocument(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				return doc, true, nil
			}
			// If deserialization fails, fall through to the store
		}
	}
	observability.Cache().OnCacheMiss(ctx, "document")

	doc, err := r.Store.Get(ctx, opts.DocumentID)
	if err != nil {
		return flow.Document{}, false, err
	}

	if data, err := flow.MarshalDocument(doc); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLDocument)
		observability.Cache().OnCacheSet(ctx, "document", len(data))
	}

	return doc, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (flow.Document, error) {
	doc, _, err := r.LoadWithCacheInfo(ctx, opts)
	return doc, err
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *flow.Graph, opts Options) (*layout.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.LayoutKey(GraphHash(g), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := unmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := layout.Compute(ctx, g, opts.Config)
	if err != nil {
		return nil, false, err
	}

	if data, err := marshalLayout(res); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return res, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *flow.Graph, opts Options) (*layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The graph must already carry the layout's positions (see [layout.Result.Apply]).
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *flow.Graph, res *layout.Result, name string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from layout data
	layoutData, err := marshalLayout(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	ropts, err := opts.RenderOptions()
	if err != nil {
		return nil, false, err
	}

	// Render all formats
	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, g, format, name, ropts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		rendered[format] = data
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *flow.Graph, res *layout.Result, name string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, res, name, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
// The store is shared with other components and is closed by its owner.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// renderFormat produces one artifact for the positioned graph.
func renderFormat(ctx context.Context, g *flow.Graph, format, name string, ropts render.Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.SVG(g, ropts)
	case FormatDOT:
		return []byte(render.ToDOT(g, ropts.Theme)), nil
	case FormatPNG:
		return render.PNG(ctx, render.ToDOT(g, ropts.Theme))
	case FormatJSON:
		return render.JSON(g, name)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
