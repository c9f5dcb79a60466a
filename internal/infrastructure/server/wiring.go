package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/inference"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/config"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/monitoring"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/resilience"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/tracing"
	"github.com/juan-materiarun/quartz-ai/internal/prompt"
	"github.com/juan-materiarun/quartz-ai/internal/providers/fetcher"
	"github.com/juan-materiarun/quartz-ai/internal/providers/scraper"
)

// ErrNoModels is returned when a credential is set but AUDIT_MODELS is empty
var ErrNoModels = errors.New("AUDIT_MODELS is empty: configure at least one inference model")

// Pipeline is the assembled audit service and the pieces health reporting needs
type Pipeline struct {
	Service  *audit.Service
	Breakers *resilience.Set
	Models   []string
}

// Components are the shared infrastructure a pipeline is built on
type Components struct {
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer
	// Backends overrides the Gemini backends, mainly for tests
	Backends []inference.Backend
}

// BuildPipeline wires fetcher, extractor, prompt builder, orchestrator and
// parser into an audit.Service. A missing credential is not an error: the
// service is built without inference and reports it per request.
func BuildPipeline(ctx context.Context, cfg *config.Config, c Components) (*Pipeline, error) {
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	prompts := prompt.Default()
	parser, err := inference.NewParser()
	if err != nil {
		return nil, fmt.Errorf("failed to load result schema: %w", err)
	}

	deps := audit.Dependencies{
		Fetcher: fetcher.New(fetcher.Config{
			Timeout: cfg.Fetch.Timeout,
			MaxBody: cfg.Fetch.MaxBody,
		}, logger),
		Extractor: scraper.NewExtractor(),
		Prompts:   prompts,
		Parser:    parser,
		Logger:    logger,
		Metrics:   c.Metrics,
		Tracer:    c.Tracer,
	}
	p := &Pipeline{}

	backends := c.Backends
	if backends == nil && cfg.HasCredential() {
		if len(cfg.Inference.Models) == 0 {
			return nil, ErrNoModels
		}
		client, err := inference.NewGeminiClient(ctx, cfg.Inference.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create inference client: %w", err)
		}
		backends = inference.NewGeminiBackends(client, cfg.Inference.Models)
	}

	if len(backends) > 0 {
		opts := []inference.Option{
			inference.WithLogger(logger),
			inference.WithMetrics(c.Metrics),
		}
		if cfg.Inference.BreakerEnabled {
			p.Breakers = newBreakers(logger, c.Metrics)
			opts = append(opts, inference.WithBreakers(p.Breakers))
		}
		orchestrator := inference.NewOrchestrator(backends, opts...)
		deps.Inference = orchestrator
		p.Models = orchestrator.Models()
		logger.Info("Inference configured",
			zap.Strings("models", p.Models),
			zap.Bool("breakers", p.Breakers != nil),
		)
	} else {
		logger.Warn("GEMINI_API_KEY is not set; audits will fail until it is configured")
	}

	p.Service = audit.NewService(deps)
	return p, nil
}

func newBreakers(logger *logging.Logger, metrics *monitoring.Metrics) *resilience.Set {
	settings := resilience.DefaultSettings()
	settings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("Inference breaker changed state",
			zap.String("model", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if metrics != nil {
			metrics.SetBreakerState(name, int(to))
		}
	}
	return resilience.NewSet(settings)
}
