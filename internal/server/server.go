package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"trendwatch/internal/core"
	"trendwatch/internal/server/handlers"
)

// Version is reported by the health check
const Version = "1.0.0"

// Server hosts the feature routes over HTTP
type Server struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	registry *core.Registry
	server   *http.Server
}

// New creates a server for the features in registry. db may be nil.
func New(config *core.Config, logger *core.Logger, db *core.Database, registry *core.Registry) *Server {
	srv := &Server{
		config:   config,
		logger:   logger,
		db:       db,
		registry: registry,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv
}

// Router builds the HTTP handler: middleware, health check and every route of
// the enabled features
func (s *Server) Router() http.Handler {
	healthHandler := handlers.NewHealthHandler(s.logger, s.registry, s.db, Version)

	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger(s.logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", healthHandler.HealthCheckHandler)

	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	return mux
}

// Start initializes all features and serves until Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		return fmt.Errorf("failed to initialize features: %w", err)
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, then the features
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.registry.ShutdownAll(ctx)
	return nil
}

func requestLogger(logger *core.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context()).Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
