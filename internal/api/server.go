// Package api serves the graph queries over HTTP. Every response body is
// an envelope; errors map to HTTP status codes by error code.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"archgraph/internal/query"
	"archgraph/internal/rules"
)

// Options configures the server
type Options struct {
	Addr string

	// RateLimit is requests per second across all clients; zero disables it
	RateLimit float64
	RateBurst int

	// RulesFile is re-read on every rules request so edits apply without
	// a restart. A missing file means built-in rules only.
	RulesFile string
	Rules     rules.Options

	Logger *slog.Logger
	Now    func() time.Time
}

// Server is the HTTP API server
type Server struct {
	opts    Options
	engine  *query.Engine
	logger  *slog.Logger
	router  *gin.Engine
	server  *http.Server
	limiter *rate.Limiter
	started time.Time
}

// NewServer creates a server over engine
func NewServer(engine *query.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:9130"
	}

	s := &Server{
		opts:    opts,
		engine:  engine,
		logger:  opts.Logger,
		started: opts.Now(),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.router = gin.New()
	s.router.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		MetricsMiddleware(),
		RateLimitMiddleware(s.limiter, "/health", "/ready", "/metrics"),
	)
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.opts.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
