package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mlindgren/flowcanvas/pkg/errors"
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/pipeline"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

// =============================================================================
// Document CRUD
// =============================================================================

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}

	doc, err := s.opts.Runner.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, storeError(err, id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := flow.ReadDocument(r.Body)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid document body"))
		return
	}
	if doc.Name != "" {
		if err := errors.ValidateDocumentName(doc.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	// Reject structurally broken documents before persisting them.
	if _, err := doc.Graph(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidGraph, err, "document graph is invalid"))
		return
	}

	saved, err := s.opts.Runner.Store.Put(r.Context(), doc)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store document failed"))
		return
	}

	// The stored version supersedes whatever the cache holds.
	key := s.opts.Runner.Keyer.DocumentKey(pipeline.DefaultNamespace, saved.ID)
	_ = s.opts.Runner.Cache.Delete(r.Context(), key)

	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}

	if err := s.opts.Runner.Store.Delete(r.Context(), id); err != nil {
		writeError(w, storeError(err, id))
		return
	}

	key := s.opts.Runner.Keyer.DocumentKey(pipeline.DefaultNamespace, id)
	_ = s.opts.Runner.Cache.Delete(r.Context(), key)

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout & Render
// =============================================================================

// layoutResponse is the layout endpoint's payload: positions plus the
// metrics the adaptive stages derived, so hosts can display them.
type layoutResponse struct {
	GraphHash        string                `json:"graph_hash"`
	Positions        map[string]geom.Point `json:"positions"`
	Complexity       string                `json:"complexity"`
	OverlapsResolved bool                  `json:"overlaps_resolved"`
	Bounds           geom.Rect             `json:"bounds"`
	Cached           bool                  `json:"cached"`
	Duration         time.Duration         `json:"duration_ns"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{
		DocumentID:  id,
		UseMeasured: r.URL.Query().Get("measured") != "false",
		Refresh:     r.URL.Query().Get("refresh") == "true",
		Logger:      s.opts.Logger,
	}
	if err := opts.ValidateForLayout(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout options"))
		return
	}

	doc, _, err := s.opts.Runner.LoadWithCacheInfo(r.Context(), opts)
	if err != nil {
		writeError(w, storeError(err, id))
		return
	}
	g, err := doc.Graph()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidGraph, err, "document graph is invalid"))
		return
	}

	res, cached, err := s.opts.Runner.ComputeLayoutWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeLayout, err, "layout computation failed"))
		return
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		GraphHash:        pipeline.GraphHash(g),
		Positions:        res.Positions,
		Complexity:       string(res.Metrics.Complexity),
		OverlapsResolved: res.OverlapsResolved,
		Bounds:           res.Bounds,
		Cached:           cached,
		Duration:         res.Duration,
	})
}

// contentTypes maps artifact formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}

	opts := pipeline.Options{
		DocumentID:  id,
		UseMeasured: r.URL.Query().Get("measured") != "false",
		Refresh:     r.URL.Query().Get("refresh") == "true",
		Formats:     []string{format},
		Theme:       r.URL.Query().Get("theme"),
		Logger:      s.opts.Logger,
	}

	result, err := s.opts.Runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, renderError(err, id))
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// =============================================================================
// Error mapping
// =============================================================================

// storeError maps store failures onto coded errors.
func storeError(err error, id string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
	}
	if code := errors.GetCode(err); code != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "document store failed")
}

// renderError classifies pipeline failures for the render endpoint.
func renderError(err error, id string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
	}
	if code := errors.GetCode(err); code != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeRender, err, "render failed")
}
