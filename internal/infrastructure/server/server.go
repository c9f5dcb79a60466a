package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/juan-materiarun/quartz-ai/internal/api/http"
	"github.com/juan-materiarun/quartz-ai/internal/api/middleware"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/config"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/monitoring"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/tracing"
)

// ShutdownTimeout bounds in-flight audits on shutdown. An audit can spend
// the fetch timeout plus several model calls.
const ShutdownTimeout = 30 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	pipeline *Pipeline
	limiter  *middleware.RateLimiter
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// Option customises server construction
type Option func(*Components)

// WithComponents overrides the shared infrastructure
func WithComponents(c Components) Option {
	return func(dst *Components) {
		if c.Logger != nil {
			dst.Logger = c.Logger
		}
		if c.Metrics != nil {
			dst.Metrics = c.Metrics
		}
		if c.Backends != nil {
			dst.Backends = c.Backends
		}
	}
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	c := Components{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Logger == nil {
		logger, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, err
		}
		c.Logger = logger
	}
	logger := c.Logger

	logger.Info("Initializing Quartz AI server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	if c.Metrics == nil {
		c.Metrics = monitoring.NewMetrics()
	}
	c.Tracer = tracing.New("quartz-ai", logger.Logger)

	pipeline, err := BuildPipeline(ctx, cfg, c)
	if err != nil {
		c.Tracer.Close()
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(c.Tracer))
	router.Use(monitoring.Middleware(c.Metrics))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORS.Origins
	router.Use(middleware.CORS(cors))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		limiter = middleware.NewRateLimiter(rl)
	}

	handlers := api.NewHandlers(pipeline.Service, api.Options{
		Metrics:  c.Metrics,
		Breakers: breakerStates(pipeline),
		Models:   pipeline.Models,
		Logger:   logger,
	})
	var guards []gin.HandlerFunc
	if limiter != nil {
		guards = append(guards, limiter.Handler())
	}
	handlers.Register(router, guards...)

	s := &Server{
		router:   router,
		pipeline: pipeline,
		limiter:  limiter,
		tracer:   c.Tracer,
		logger:   logger,
		config:   cfg,
		metrics:  c.Metrics,
	}
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func breakerStates(p *Pipeline) api.BreakerStates {
	if p.Breakers == nil {
		return nil
	}
	return p.Breakers
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Pipeline returns the assembled audit pipeline
func (s *Server) Pipeline() *Pipeline {
	return s.pipeline
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, waits for in-flight audits and
// releases background workers
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	s.Close()
	return err
}

// Close releases background workers without waiting for requests
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
	s.tracer.Close()
	_ = s.logger.Sync()
}
