package api

import (
	"github.com/KaustubhAChavan/watermark-app/internal/api/handlers"
	"github.com/KaustubhAChavan/watermark-app/internal/api/middleware"
	"github.com/KaustubhAChavan/watermark-app/internal/api/websocket"
	"github.com/KaustubhAChavan/watermark-app/internal/modules/jobs"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/metrics"
	"github.com/KaustubhAChavan/watermark-app/internal/shared/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServerConfig holds dependencies for the API server
type ServerConfig struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Metrics // optional
	Storage      *storage.Service
	Recorder     *jobs.Recorder
	WSHub        *websocket.Hub
	VideoEnabled bool
}

// Server represents the observation API: health, recent jobs, live job
// events, Prometheus metrics. It never mutates daemon state.
type Server struct {
	config       *config.Config
	logger       *zap.Logger
	metrics      *metrics.Metrics
	storage      *storage.Service
	recorder     *jobs.Recorder
	wsHub        *websocket.Hub
	videoEnabled bool
}

// NewServer creates a new API server
func NewServer(cfg ServerConfig) *Server {
	return &Server{
		config:       cfg.Config,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		storage:      cfg.Storage,
		recorder:     cfg.Recorder,
		wsHub:        cfg.WSHub,
		videoEnabled: cfg.VideoEnabled,
	}
}

// Router returns the configured HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(middleware.MetricsMiddleware(s.metrics))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.storage, s.videoEnabled)
	jobHandler := handlers.NewJobHandler(s.recorder, s.logger)
	wsHandler := handlers.NewWebSocketHandler(s.wsHub, s.logger)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)
		r.Get("/jobs", jobHandler.ListJobs)
		r.Get("/ws", wsHandler.HandleConnection)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
