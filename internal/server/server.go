// Package server serves JEF patterns from a directory over HTTP.
//
// Routes:
//
//	GET /healthz                                   liveness and version
//	GET /patterns                                  .jef files under the root
//	GET /patterns/{name}                           decoded summary (JSON)
//	GET /patterns/{name}/render.{format}?x=&y=&w=&h=&width=&height=&background=&points=
//
// Every request decodes its own pattern and builds its own session, so no
// mutable state is shared between requests. Rendered artifacts and
// summaries go through the runner's cache.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/store"
)

// Config configures a Server.
type Config struct {
	// Root is the directory patterns are served from.
	Root string

	// Runner decodes, indexes and renders. It owns the cache.
	Runner *pipeline.Runner

	// Store supplies saved palettes. Optional.
	Store store.Store

	// Defaults are the render options used when a query leaves them out.
	Defaults pipeline.Options

	Logger *log.Logger
}

// Server is the preview HTTP server.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, nil, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/patterns", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleInfo)
		r.Get("/{name}/render.{format}", s.handleRender)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.cfg.Logger.Info("serving patterns", "addr", ln.Addr().String(), "root", s.cfg.Root)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
