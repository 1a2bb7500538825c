// Package pkg provides the core libraries for flowcanvas survey flow layout.
//
// # Overview
//
// Flowcanvas computes smart layouts for survey flow graphs: start and submit
// terminals connected to question blocks by sequential and conditional edges.
// The pkg directory is organized into four main areas:
//
//  1. [flow] - Domain model (documents, graphs, structural analysis)
//  2. [layout] - Layout engine (dagre ranking, adaptive spacing, overlap and
//     label collision resolution)
//  3. [render] - Artifact renderers (SVG, PNG, DOT, JSON) and the [viewport]
//     tracker for interactive hosts
//  4. [pipeline] - Orchestration (load → layout → render) over [cache] and
//     [store] backends
//
// # Architecture
//
// The typical data flow through flowcanvas:
//
//	Flow document (file, store, or API body)
//	         ↓
//	    [flow] package (graph structure + validation)
//	         ↓
//	    [layout] package (positions, spacing, de-overlap)
//	         ↓
//	    [render] package (SVG/PNG/DOT/JSON output)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//		Path:    "survey.flow.json",
//		Formats: []string{"svg"},
//	})
package pkg
