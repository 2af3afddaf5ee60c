package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/collector"
	"github.com/user/embed-images/internal/config"
	"github.com/user/embed-images/internal/monitoring"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	collector  *collector.Collector
	cache      cache.Cache
	metrics    *monitoring.Metrics
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// NewServer wires the handlers. c may be nil when caching is disabled.
func NewServer(cfg *config.Config, col *collector.Collector, c cache.Cache, m *monitoring.Metrics, g prometheus.Gatherer, l *zap.Logger) *Server {
	s := &Server{
		config:    cfg,
		collector: col,
		cache:     c,
		metrics:   m,
		gatherer:  g,
		logger:    l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
