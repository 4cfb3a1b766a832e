// Package server exposes the rerank engine over HTTP with a Jina-compatible
// API, so existing rerank clients can point at it unchanged.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-rankllm"
	"github.com/soundprediction/go-rankllm/pkg/config"
	"github.com/soundprediction/go-rankllm/pkg/llm"
	"github.com/soundprediction/go-rankllm/pkg/rerank"
	"github.com/soundprediction/go-rankllm/pkg/server/handlers"
)

// Server hosts the rerank HTTP API.
type Server struct {
	cfg        *config.Config
	client     llm.Client
	baseConfig rankllm.Config
	logger     *slog.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New creates a server around a model client and base engine configuration.
func New(cfg *config.Config, client llm.Client, baseConfig rankllm.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		cfg:        cfg,
		client:     client,
		baseConfig: baseConfig,
		logger:     logger,
	}
}

// Setup wires routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.cfg.Server.Mode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())

	rerankHandler := handlers.NewRerankHandler(s, s.logger)
	healthHandler := handlers.NewHealthHandler(s.client.Model())

	s.router.GET("/health", healthHandler.Health)
	v1 := s.router.Group("/v1")
	{
		v1.POST("/rerank", rerankHandler.Rerank)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Engine implements handlers.EngineProvider: it builds a reranker for one
// request, applying the request's option overrides on top of the base
// configuration. Engines are cheap; the underlying client is shared.
func (s *Server) Engine(windowSize, stride, passes *int) (handlers.Reranker, error) {
	cfg := s.baseConfig
	opts := cfg.Options

	if windowSize != nil {
		if *windowSize < 1 {
			return nil, fmt.Errorf("window_size must be at least 1")
		}
		opts.WindowSize = *windowSize
	}
	if stride != nil {
		if *stride < 1 {
			return nil, fmt.Errorf("stride must be at least 1")
		}
		opts.Stride = *stride
	}
	if passes != nil {
		if *passes < 1 {
			return nil, fmt.Errorf("passes must be at least 1")
		}
		if *passes > rerank.MaxPasses {
			return nil, fmt.Errorf("passes must not exceed %d", rerank.MaxPasses)
		}
		opts.Passes = *passes
	}

	cfg.Options = opts
	cfg.Logger = s.logger
	return rankllm.New(s.client, &cfg), nil
}

// Model implements handlers.EngineProvider.
func (s *Server) Model() string {
	return s.client.Model()
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("rerank server listening",
		"addr", s.httpServer.Addr, "model", s.client.Model())
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
