// Package server exposes the pipeline over HTTP: project CRUD, generation
// from a streamed request body, composed-document previews, and a websocket
// hub that mirrors parser events to connected canvas clients.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/publish"
)

// Server wires the pipeline runner, publisher, and live hub behind a chi
// router.
type Server struct {
	runner    *pipeline.Runner
	publisher publish.Publisher
	hub       *LiveHub
	logger    *log.Logger
}

// New creates a server. The hub's Run loop is started here.
func New(runner *pipeline.Runner, publisher publish.Publisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	hub := NewLiveHub(logger)
	go hub.Run()
	return &Server{
		runner:    runner,
		publisher: publisher,
		hub:       hub,
		logger:    logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/projects", func(r chi.Router) {
		r.Post("/", s.handleCreateProject)
		r.Get("/", s.handleListProjects)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Delete("/", s.handleDeleteProject)
			r.Get("/screens", s.handleScreens)
			r.Get("/flows", s.handleFlows)
			r.Get("/preview", s.handlePreview)
			r.Post("/generate", s.handleGenerate)
			r.Post("/publish", s.handlePublish)
			r.Get("/live", s.handleLive)
		})
	})

	r.Get("/share/{token}", s.handleShare)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
