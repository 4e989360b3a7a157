// Package api exposes schema driven encoding, decoding and frame storage
// over HTTP.
//
// Every route under /api/v1 requires the X-API-Key header. /metrics is
// left open for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger requests and lifecycle events are written to
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry registers metrics with reg and serves it on /metrics
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewServer creates a new API server. frames may be nil, in which case the
// frame routes are not mounted.
func NewServer(catalog SchemaCatalog, frames FrameStore, config ServerConfig, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		frames:  frames,
		config:  config,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = NewMetrics(s.registry)
	return s
}

// Handler builds the router with all routes configured
func (s *Server) Handler() http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Schemas
		r.Get("/schemas", metrics.InstrumentHandler("GET", "/api/v1/schemas", s.handleListSchemas))
		r.Get("/schemas/{name}", metrics.InstrumentHandler("GET", "/api/v1/schemas/{name}", s.handleGetSchema))
		r.Post("/schemas/{name}/encode", metrics.InstrumentHandler("POST", "/api/v1/schemas/{name}/encode", s.handleEncode))
		r.Post("/schemas/{name}/decode", metrics.InstrumentHandler("POST", "/api/v1/schemas/{name}/decode", s.handleDecode))

		// Frames
		if s.frames != nil {
			r.Get("/frames", metrics.InstrumentHandler("GET", "/api/v1/frames", s.handleListFrames))
			r.Post("/frames", metrics.InstrumentHandler("POST", "/api/v1/frames", s.handlePutFrame))
			r.Get("/frames/{id}", metrics.InstrumentHandler("GET", "/api/v1/frames/{id}", s.handleGetFrame))
			r.Delete("/frames/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/frames/{id}", s.handleDeleteFrame))
		}
	})

	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", addr).
			Str("metrics", fmt.Sprintf("http://%s/metrics", addr)).
			Msg("starting structkit API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
