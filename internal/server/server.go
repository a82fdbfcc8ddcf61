// Package server exposes the pipeline's health and status over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gator-life/gator/internal/config"
	"github.com/gator-life/gator/internal/storage"
	"go.uber.org/zap"
)

// Server serves the status API alongside the orchestration loop. It is a thin
// observability surface, not the user-facing frontend.
type Server struct {
	store   storage.Store
	modelID string
	dbPath  string
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a status server over the given store.
func NewServer(store storage.Store, modelID, dbPath string, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		store:   store,
		modelID: modelID,
		dbPath:  dbPath,
		config:  cfg,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("starting status server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the router without binding a listener. Used in tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	return r
}
