// Package server provides the HTTP API for shirabe.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/search"
)

// Server is the HTTP server for the shirabe API.
type Server struct {
	engine   *search.Engine
	ingester *ingest.Ingester
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, ingester *ingest.Ingester, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine:   engine,
		ingester: ingester,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the HTTP handler with all routes. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleIngest)
	r.Post("/api/v1/flush", s.handleFlush)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
