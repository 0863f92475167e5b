// Package api serves generation runs over HTTP.
//
// A POST to /v1/runs executes the pipeline synchronously and archives the
// run only once every stage has finished, so a run id is never visible
// before its result is complete.
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/fleetmap/pkg/config"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
	"github.com/matzehuels/fleetmap/pkg/store"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 16 << 20

// Server holds the API dependencies.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Config *config.Config
	Logger *log.Logger

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler

	MaxBodyBytes int64
}

// New returns a server with defaults for any nil dependency.
func New(runner *pipeline.Runner, st store.Store, cfg *config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		Runner:       runner,
		Store:        st,
		Config:       cfg,
		Logger:       logger,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Router wires handlers and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", s.createRun)
		r.Get("/", s.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Delete("/", s.deleteRun)
			r.Get("/poi", s.getRunPOI)
			r.Get("/grid", s.getRunGrid)
		})
	})
	return r
}

// HTTPServer returns an http.Server with timeouts sized for synchronous runs.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
}
