// Package server implements the flowcanvas HTTP API.
//
// The API exposes document CRUD backed by a [store.Store] and layout/render
// endpoints backed by a [pipeline.Runner], so a host UI can persist flow
// documents and fetch computed layouts and rendered artifacts without
// embedding the engine.
//
// # Endpoints
//
//	GET    /healthz                        liveness probe
//	GET    /api/documents                  list stored documents
//	POST   /api/documents                  create or update a document
//	GET    /api/documents/{id}             fetch a document
//	DELETE /api/documents/{id}             delete a document
//	POST   /api/documents/{id}/layout      compute a layout, return positions
//	GET    /api/documents/{id}/render      render an artifact (format, theme)
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mlindgren/flowcanvas/pkg/buildinfo"
	"github.com/mlindgren/flowcanvas/pkg/errors"
	"github.com/mlindgren/flowcanvas/pkg/pipeline"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

// =============================================================================
// Options
// =============================================================================

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Runner executes layout and render requests. Required.
	Runner *pipeline.Runner

	// Logger for request logging. Defaults to log.Default().
	Logger *log.Logger

	// ReadTimeout and WriteTimeout bound request handling.
	// Renders of large flows can take a while, hence the generous default.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (o *Options) validateAndSetDefaults() error {
	if o.Runner == nil {
		return fmt.Errorf("server: Runner is required")
	}
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 60 * time.Second
	}
	return nil
}

// =============================================================================
// Server
// =============================================================================

// Server is the flowcanvas HTTP API server.
type Server struct {
	opts   Options
	router chi.Router
	http   *http.Server
}

// New creates a server. The runner's store backs the document endpoints.
func New(opts Options) (*Server, error) {
	if err := opts.validateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{opts: opts}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server listening", "addr", s.opts.Addr, "version", buildinfo.Version)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handlePutDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Post("/layout", s.handleLayout)
			r.Get("/render", s.handleRender)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-Id"

// requestID assigns a UUID to every request, honoring an inbound ID so
// callers can correlate across services.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", ww.Header().Get(requestIDHeader))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps coded errors onto HTTP statuses and emits the user-facing
// message, never the internal cause chain.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(code),
		RequestID: w.Header().Get(requestIDHeader),
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDocument, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidBlockType, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidTheme,
		errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.opts.Runner.Store.List(r.Context())
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "list documents failed"))
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}
