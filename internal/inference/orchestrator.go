package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/monitoring"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/resilience"
)

// Attempt results recorded in metrics
const (
	resultSuccess     = "success"
	resultFailure     = "failure"
	resultEmpty       = "empty"
	resultCircuitOpen = "circuit_open"
)

// Attempt is the winning model reply
type Attempt struct {
	ModelID  string
	Text     string
	Duration time.Duration
	// Failures lists the models tried before this one
	Failures []audit.AttemptFailure
}

// Orchestrator tries backends strictly in order and returns the first
// non-empty reply. Calls are never raced and never retried.
type Orchestrator struct {
	backends []Backend
	breakers *resilience.Set
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithBreakers skips models whose circuit is open
func WithBreakers(set *resilience.Set) Option {
	return func(o *Orchestrator) { o.breakers = set }
}

// WithMetrics records per-model attempts
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates an orchestrator over backends, tried in slice order
func NewOrchestrator(backends []Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backends: append([]Backend(nil), backends...),
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("orchestrator")
	return o
}

// Models returns the fallback order
func (o *Orchestrator) Models() []string {
	ids := make([]string, len(o.backends))
	for i, b := range o.backends {
		ids[i] = b.ID()
	}
	return ids
}

// Generate walks the fallback list. It fails with *audit.ExhaustionError only
// after every backend failed, or with the context error if the caller gave up.
func (o *Orchestrator) Generate(ctx context.Context, prompt string) (Attempt, error) {
	var failures []audit.AttemptFailure

	for i, backend := range o.backends {
		if err := ctx.Err(); err != nil {
			return Attempt{}, fmt.Errorf("inference aborted after %d attempts: %w", i, err)
		}

		model := backend.ID()
		start := time.Now()
		text, result, err := o.try(ctx, backend, prompt)
		elapsed := time.Since(start)
		o.record(model, result)

		if err == nil {
			if len(failures) > 0 {
				o.log.Info("fallback model answered",
					zap.String("model", model),
					zap.Int("failed_before", len(failures)),
				)
			}
			return Attempt{ModelID: model, Text: text, Duration: elapsed, Failures: failures}, nil
		}

		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return Attempt{}, fmt.Errorf("inference aborted during %s: %w", model, err)
		}

		failures = append(failures, audit.AttemptFailure{ModelID: model, Reason: reason(err)})
		o.log.Warn("model failed, trying next",
			zap.String("model", model),
			zap.Int("position", i),
			zap.String("reason", reason(err)),
			zap.Duration("duration", elapsed),
		)
	}

	o.log.Error("all models failed", zap.Int("attempts", len(failures)))
	return Attempt{}, &audit.ExhaustionError{Attempts: failures}
}

// Infer is Generate reduced to the winning model and its reply
func (o *Orchestrator) Infer(ctx context.Context, prompt string) (string, string, error) {
	attempt, err := o.Generate(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	return attempt.ModelID, attempt.Text, nil
}

// try calls one backend, translating panics and blank replies into errors
func (o *Orchestrator) try(ctx context.Context, backend Backend, prompt string) (text, result string, err error) {
	var breaker *resilience.Breaker
	if o.breakers != nil {
		breaker = o.breakers.Get(backend.ID())
		if err := breaker.Allow(); err != nil {
			return "", resultCircuitOpen, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			text, result = "", resultFailure
			err = fmt.Errorf("backend panicked: %v", r)
		}
		switch {
		case breaker == nil:
		case ctx.Err() != nil:
			// A caller cancellation says nothing about the backend's health
			breaker.Cancel()
		default:
			breaker.Done(err == nil)
		}
	}()

	text, err = backend.Generate(ctx, prompt)
	if err != nil {
		return "", resultFailure, err
	}
	if strings.TrimSpace(text) == "" {
		return "", resultEmpty, errors.New("empty response")
	}
	return text, resultSuccess, nil
}

func (o *Orchestrator) record(model, result string) {
	if o.metrics != nil {
		o.metrics.RecordModelAttempt(model, result)
	}
}
