// Package server provides the HTTP server and route table
package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Metrics is what the server needs from the metrics collector
type Metrics interface {
	middleware.Metrics
	Handler() http.Handler
}

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Assistant *handlers.AssistantHandlers
	Chat      *handlers.ChatHandlers
	Payments  *handlers.PaymentHandlers
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	router  *chi.Mux
	server  *http.Server
	metrics Metrics
	health  *healthcheck.HealthCheck
	limiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server instance. limiter may be nil when
// rate limiting is disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h Handlers,
	metrics Metrics,
	health *healthcheck.HealthCheck,
	limiter *middleware.RateLimiter,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		health:  health,
		limiter: limiter,
	}

	s.router = s.setupRouter(h)

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(s.router, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	}
	if s.config.Monitoring.EnableMetrics {
		r.Use(middleware.RequestMetrics(s.metrics))
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}
	if s.config.Server.EnableCompression {
		r.Use(chimiddleware.Compress(5))
	}

	healthPath := s.config.Monitoring.HealthCheckPath
	if healthPath == "" {
		healthPath = "/health"
	}
	r.Get(healthPath, s.health.Handler())
	r.Get(healthPath+"/live", s.health.LivenessHandler())
	r.Get(healthPath+"/ready", s.health.ReadinessHandler())

	if s.config.Monitoring.EnableMetrics {
		metricsPath := s.config.Monitoring.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Handle(metricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Rate limited
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Handler)
			}
			r.Post("/assistant", h.Assistant.Ask)
			r.Post("/chat", h.Chat.Chat)
		})

		r.Get("/assistant/glossary", h.Assistant.Glossary)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/intents", h.Payments.CreateIntent)
			r.Post("/checkout", h.Payments.CreateCheckout)
			r.Post("/webhook", h.Payments.Webhook)
			r.Get("/{id}", h.Payments.GetPayment)
		})
	})

	if dir := s.config.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			s.logger.Warn("Static directory not found, not serving static files", zap.String("dir", dir))
		}
	}

	return r
}

// Handler returns the root handler including tracing
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops. A graceful
// shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := http2.ConfigureServer(s.server, &http2.Server{IdleTimeout: s.config.Server.IdleTimeout}); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.limiter != nil {
		s.limiter.Close()
	}
	return s.server.Shutdown(ctx)
}
