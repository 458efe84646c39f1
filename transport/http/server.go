// Package http exposes a hub over a small JSON API.
package http

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/transport/http/handlers"
	"github.com/kart-io/alerthub/transport/http/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	EnableCORS     bool
	APIKeys        []string
	// RateLimit is the per-client request rate on /api/v1. Zero disables it.
	RateLimit      float64
	RateBurst      int
}

// Server serves the alert API.
type Server struct {
	hub    handlers.Hub
	config Config
	logger logger.Logger
	router chi.Router
	server *http.Server
}

// NewServer creates a server for h.
func NewServer(h handlers.Hub, config Config, log logger.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 60 * time.Second
	}
	if config.MaxHeaderBytes == 0 {
		config.MaxHeaderBytes = 1 << 20
	}

	s := &Server{hub: h, config: config, logger: logger.OrDiscard(log)}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:           config.Addr,
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

func (s *Server) routes() chi.Router {
	send := handlers.NewSendHandler(s.hub, s.logger)
	batch := handlers.NewBatchHandler(s.hub, s.logger)
	health := handlers.NewHealthHandler(s.hub)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(s.logger))
	r.Use(chimw.Recoverer)
	if s.config.EnableCORS {
		r.Use(middleware.CORS(nil))
	}

	r.Get("/healthz", health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.config.APIKeys...))
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{Rate: s.config.RateLimit, Burst: s.config.RateBurst}))

		r.Post("/alerts", batch.Handle)
		r.Post("/alerts/{kind}", send.Send)
		r.Post("/health-check", send.HealthCheck)
		r.Get("/channels", health.Channels)
		r.Get("/reports", health.Reports)
		r.Get("/reports/{id}", health.Report)
		r.Get("/metrics", health.Metrics)
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and blocks until Stop.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.config.Addr)
	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
