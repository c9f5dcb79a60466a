package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/monitoring"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/tracing"
	"github.com/juan-materiarun/quartz-ai/internal/shared/id"
	"github.com/juan-materiarun/quartz-ai/internal/shared/utils"
)

// Fetcher retrieves the raw document behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Extractor reduces a raw document to bounded text. It reports whether the
// text was truncated and fails with ErrEmptyContent when nothing remains.
type Extractor interface {
	ExtractText(raw string) (string, bool, error)
}

// PromptBuilder renders the model instruction
type PromptBuilder interface {
	Build(kind Kind, content string, truncated bool) string
}

// Inference returns the first usable model reply and the model that gave it
type Inference interface {
	Infer(ctx context.Context, prompt string) (model, text string, err error)
}

// ResponseParser recovers a Result from a model reply
type ResponseParser interface {
	Parse(text string) (*Result, error)
}

// Dependencies wires the pipeline stages. Inference is nil when no
// credential is configured.
type Dependencies struct {
	Fetcher   Fetcher
	Extractor Extractor
	Prompts   PromptBuilder
	Inference Inference
	Parser    ResponseParser
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
}

// Service runs one audit per call. Runs share no mutable state.
type Service struct {
	deps Dependencies
	log  *logging.Logger
}

// NewService creates the pipeline
func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{deps: deps, log: log.Named("audit")}
}

// Ready reports whether audits can reach an inference backend
func (s *Service) Ready() bool {
	return s.deps.Inference != nil
}

// Run validates req, gathers content, prompts the models and parses the reply
func (s *Service) Run(ctx context.Context, req Request) (result *Result, err error) {
	auditID := id.NewAuditID().String()
	log := s.log.ForAudit(auditID, string(req.Kind))
	log = &logging.Logger{Logger: log.With(tracing.Fields(ctx)...)}
	start := time.Now()

	defer func() {
		outcome := Outcome(err)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordAudit(string(req.Kind), outcome)
		}
		if err != nil {
			log.Warn("audit failed",
				zap.String("outcome", outcome),
				zap.Int("status", StatusCode(err)),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		log.Info("audit completed",
			zap.String("model", result.Model),
			zap.Int("defects", len(result.Defects)),
			zap.Int("passed", len(result.PassedTests)),
			zap.Bool("model_error", result.Failed()),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.deps.Inference == nil {
		return nil, ErrMissingCredential
	}

	content, truncated, err := s.gather(ctx, req, log)
	if err != nil {
		return nil, err
	}

	timer := monitoring.NewStageTimer(s.deps.Metrics, monitoring.StagePrompt)
	prompt := s.deps.Prompts.Build(req.Kind, content, truncated)
	timer.Stop("ok")

	var model, text string
	err = s.trace(ctx, monitoring.StageInference, func(ctx context.Context) error {
		var err error
		model, text, err = s.deps.Inference.Infer(ctx, prompt)
		return err
	})
	if err != nil {
		return nil, err
	}

	timer = monitoring.NewStageTimer(s.deps.Metrics, monitoring.StageParse)
	result, err = s.deps.Parser.Parse(text)
	timer.StopErr(err)
	if err != nil {
		log.Debug("unparseable model reply", zap.String("model", model), zap.Int("chars", len(text)))
		return nil, fmt.Errorf("%s: %w", model, err)
	}

	result.AuditID = auditID
	result.Model = model
	if s.deps.Metrics != nil {
		for _, d := range result.Defects {
			s.deps.Metrics.RecordDefect(string(d.Priority))
		}
	}
	return result, nil
}

// gather returns the content to audit and whether it was truncated
func (s *Service) gather(ctx context.Context, req Request, log *logging.Logger) (string, bool, error) {
	if req.Kind == KindCode {
		log.Debug("auditing submitted code",
			zap.String("fingerprint", utils.Fingerprint(req.Content)),
			zap.Int("chars", len(req.Content)),
		)
		content, truncated := utils.TruncateRunes(req.Content, MaxContentChars)
		return content, truncated, nil
	}

	var raw string
	err := s.trace(ctx, monitoring.StageFetch, func(ctx context.Context) error {
		var err error
		raw, err = s.deps.Fetcher.Fetch(ctx, req.Content)
		return err
	})
	if err != nil {
		return "", false, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveFetch(len(raw))
	}

	var (
		content   string
		truncated bool
	)
	err = s.trace(ctx, monitoring.StageExtract, func(context.Context) error {
		var err error
		content, truncated, err = s.deps.Extractor.ExtractText(raw)
		return err
	})
	if err != nil {
		return "", false, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveExtracted(len([]rune(content)))
	}
	log.Debug("extracted page content",
		zap.Int("raw_bytes", len(raw)),
		zap.Int("chars", len(content)),
		zap.Bool("truncated", truncated),
	)
	return content, truncated, nil
}

// trace times a stage and wraps it in a span when tracing is enabled
func (s *Service) trace(ctx context.Context, stage string, fn func(context.Context) error) error {
	timer := monitoring.NewStageTimer(s.deps.Metrics, stage)
	var err error
	if s.deps.Tracer != nil {
		err = s.deps.Tracer.Trace(ctx, stage, fn)
	} else {
		err = fn(ctx)
	}
	timer.StopErr(err)
	return err
}
