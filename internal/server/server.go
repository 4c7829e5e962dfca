// Package server exposes the decodability engine over HTTP.
//
// Routes are registered on a method-qualified [http.ServeMux] and wrapped in
// the observe middleware, so every request carries a trace span, a
// correlation ID, and a latency metric. Handlers are thin: they decode JSON,
// call the engine packages, and encode the result. All engine semantics live
// in internal/decodability, internal/readaloud, and internal/storygen.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/curriculum"
	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/health"
	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/internal/storygen"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/provider/embeddings"
)

// shutdownTimeout bounds graceful shutdown once the run context is done.
const shutdownTimeout = 10 * time.Second

// maxBodyBytes caps request bodies. A full story plus transcript is a few
// kilobytes; a megabyte leaves generous headroom.
const maxBodyBytes = 1 << 20

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithCurriculumStore enables named inventory variants beyond the built-in
// default.
func WithCurriculumStore(store curriculum.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithGenerator enables the POST /v1/stories generation endpoint.
func WithGenerator(g *storygen.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithArchive enables story persistence and listing. summariser may be nil,
// in which case [archive.TitleSummariser] is used; embedder may be nil, in
// which case stories are archived without a similarity vector.
func WithArchive(a *archive.Archive, summariser archive.Summariser, embedder embeddings.Provider) Option {
	return func(s *Server) {
		s.archive = a
		s.summariser = summariser
		s.embedder = embedder
	}
}

// WithThreshold sets the decodability pass threshold used by /v1/validate.
func WithThreshold(threshold float64) Option {
	return func(s *Server) { s.threshold = threshold }
}

// WithHealth sets the health handler serving /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server holds the engine dependencies behind the HTTP surface. Optional
// dependencies (store, generator, archive) may be nil; the corresponding
// endpoints answer 503.
type Server struct {
	inventory *phonics.Inventory
	assessor  *readaloud.Assessor
	threshold float64

	store      curriculum.Store
	generator  *storygen.Generator
	archive    *archive.Archive
	summariser archive.Summariser
	embedder   embeddings.Provider

	health  *health.Handler
	metrics *observe.Metrics
}

// New creates a Server over the default inventory and assessor. Everything
// else is optional.
func New(inventory *phonics.Inventory, assessor *readaloud.Assessor, opts ...Option) *Server {
	s := &Server{
		inventory: inventory,
		assessor:  assessor,
		threshold: decodability.DefaultThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler builds the full route table wrapped in the observe middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/decompose", s.handleDecompose)
	mux.HandleFunc("POST /v1/assess", s.handleAssess)
	mux.HandleFunc("GET /v1/assess/live", s.handleAssessLive)
	mux.HandleFunc("POST /v1/stories", s.handleGenerateStory)
	mux.HandleFunc("GET /v1/stories", s.handleListStories)
	mux.HandleFunc("GET /v1/stories/{id}", s.handleGetStory)
	mux.HandleFunc("GET /v1/inventories", s.handleListInventories)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully. certFile/keyFile may be empty for plain HTTP.
func (s *Server) Run(ctx context.Context, addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return ctx.Err()
}

// resolveValidator builds a validator over the named inventory. An empty name
// or the default inventory's own name selects the built-in inventory; any
// other name is looked up in the curriculum store.
func (s *Server) resolveValidator(ctx context.Context, name string) (*decodability.Validator, *phonics.Inventory, error) {
	inv, err := s.resolveInventory(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	v := decodability.New(phonics.NewDecomposer(inv), decodability.WithThreshold(s.threshold))
	return v, inv, nil
}

func (s *Server) resolveInventory(ctx context.Context, name string) (*phonics.Inventory, error) {
	if name == "" || name == s.inventory.Name() {
		return s.inventory, nil
	}
	if s.store == nil {
		return nil, errUnknownInventory(name)
	}
	def, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, errUnknownInventory(name)
	}
	return def.Build()
}

// notFoundError marks errors that should map to a 404.
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func errUnknownInventory(name string) error {
	return notFoundError(fmt.Sprintf("server: unknown inventory %q", name))
}

// ── JSON helpers ─────────────────────────────────────────────────────────────

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody strictly decodes a JSON request body into v. Unknown fields are
// rejected so client typos fail loudly rather than silently validating the
// wrong thing.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("server: decode request: %w", err)
	}
	return nil
}
