// Package server implements the templar registry HTTP API.
//
// The server exposes the same pipeline the CLI runs locally, plus manifest
// and catalog lookups for remote stores. Routes live under /api/v1 and
// speak the wire types from pkg/registry, so a templar CLI pointed at a
// server behaves exactly like one reading a local template directory.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/templar-cli/templar/pkg/cache"
	"github.com/templar-cli/templar/pkg/template"
)

// Publisher is the optional write side of a template store. The
// mongo-backed registry store implements it; read-only stores do not, and
// the publish route returns 405 without one.
type Publisher interface {
	Publish(ctx context.Context, m *template.Manifest) error
	ListTemplates(ctx context.Context) ([]string, error)
}

// Config configures a registry server.
type Config struct {
	// Addr is the listen address (default ":8630").
	Addr string

	// Store and Catalog back manifest lookups and the pipeline.
	Store   template.Store
	Catalog template.Catalog

	// Publisher enables the publish and template-list routes (optional).
	Publisher Publisher

	// Cache backs pipeline result caching (optional).
	Cache cache.Cache

	// Logger receives request and pipeline logs (optional).
	Logger *log.Logger
}

// Server is the templar registry HTTP server.
// The zero value is not usable - use New.
type Server struct {
	cfg    Config
	router chi.Router
	logger *log.Logger
}

// New creates a Server and builds its route table.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8630"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the server's HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("registry server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/manifests/{id}", s.handleGetManifest)
		r.Post("/manifests", s.handlePublish)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{name}/versions", s.handleGetVersions)
		r.Post("/resolve", s.handleResolve)
		r.Post("/compose", s.handleCompose)
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
