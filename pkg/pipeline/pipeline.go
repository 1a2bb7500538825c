// Package pipeline provides the core flow visualization pipeline.
//
// This package implements the complete load → layout → render pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a flow document from a file or the document store
//  2. Layout: Compute smart positions for the flow graph
//  3. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
// Layout and render results are cached by content hash, so repeated runs
// over an unchanged document are cheap.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	opts := pipeline.Options{
//	    Path:    "intake.flow.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	doc, err := runner.Load(ctx, opts)
//
//	// Layout with existing graph
//	res, err := runner.ComputeLayout(ctx, g, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, g, res, name, opts)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/errors"
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/layout"
	"github.com/mlindgren/flowcanvas/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultNamespace scopes document cache keys when no tenant is set.
	DefaultNamespace = "default"

	// DefaultTheme is the default render color scheme.
	DefaultTheme = "light"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one source must be set: a document file path,
	// a store document ID, or a pre-loaded document.
	Path       string         `json:"path,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
	Document   *flow.Document `json:"-"`

	// Namespace scopes document cache keys for multi-tenant deployments.
	Namespace string `json:"namespace,omitempty"`

	// Refresh bypasses cached results and recomputes every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	Config      layout.Config `json:"-"`
	UseMeasured bool          `json:"use_measured,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the loaded flow document.
	Document flow.Document

	// Graph is the document's flow graph with computed positions applied.
	Graph *flow.Graph

	// GraphHash is the content hash of the graph structure. Positions are
	// excluded, so applying a layout does not invalidate the hash.
	GraphHash string

	// Layout contains the layout data (positions, metrics, spacing).
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DocumentHit bool // Whether the document came from cache
	LayoutHit   bool // Whether the layout result came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for document loading.
func (o *Options) ValidateForLoad() error {
	sources := 0
	if o.Path != "" {
		sources++
	}
	if o.DocumentID != "" {
		sources++
	}
	if o.Document != nil {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("path, document_id, or document is required")
	}
	if sources > 1 {
		return fmt.Errorf("path, document_id, and document are mutually exclusive")
	}
	if o.DocumentID != "" {
		if err := errors.ValidateDocumentID(o.DocumentID); err != nil {
			return err
		}
	}

	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Config == (layout.Config{}) {
		o.Config = layout.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	for _, f := range o.Formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return errors.ValidateTheme(o.Theme)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		UseMeasured: o.UseMeasured,
		ConfigHash:  configHash(o.Config),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Theme:  o.Theme,
	}
}

// RenderOptions returns the render settings derived from the pipeline options.
func (o *Options) RenderOptions() (render.Options, error) {
	theme, err := render.ThemeByName(o.Theme)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Theme:   theme,
		SizeFor: o.Config.SizeFunc(o.UseMeasured),
	}, nil
}

// configHash fingerprints the layout tuning table for cache keys.
func configHash(cfg layout.Config) string {
	data, _ := json.Marshal(cfg)
	return cache.Hash(data)
}
