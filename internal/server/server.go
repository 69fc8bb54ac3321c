// Package server provides the HTTP API for recall.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/caldera-ai/recall/internal/config"
	"github.com/caldera-ai/recall/internal/embedding"
	"github.com/caldera-ai/recall/internal/retrieval"
	"github.com/caldera-ai/recall/internal/store"
	"github.com/caldera-ai/recall/internal/warmer"
)

// Server is the HTTP server for the recall API.
type Server struct {
	registry *retrieval.Registry
	store    store.VectorStore
	embedder embedding.Embedder
	warmer   *warmer.Warmer
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	registry *retrieval.Registry,
	st store.VectorStore,
	embedder embedding.Embedder,
	w *warmer.Warmer,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		registry: registry,
		store:    st,
		embedder: embedder,
		warmer:   w,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1/tenants/{tenant}", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/knowledge", s.handleStoreKnowledge)
		r.Delete("/knowledge", s.handleDeleteKnowledge)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/warmup", s.handleWarmup)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
