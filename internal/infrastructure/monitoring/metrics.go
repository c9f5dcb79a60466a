package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quartz"

// Pipeline stages timed by StageTimer
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StagePrompt    = "prompt"
	StageInference = "inference"
	StageParse     = "parse"
)

// Metrics holds all Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Audit metrics
	AuditsTotal   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	ModelAttempts *prometheus.CounterVec
	FetchedBytes  prometheus.Histogram
	ExtractedSize prometheus.Histogram
	DefectsFound  *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec

	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds running totals for the health endpoint
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	AuditsRun     int64   `json:"audits_run"`
	AuditsFailed  int64   `json:"audits_failed"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a collector set registered on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audits_total",
				Help:      "Audits by input kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audit_stage_duration_seconds",
				Help:      "Duration of each audit pipeline stage",
				Buckets:   []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"stage", "status"},
		),
		ModelAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_attempts_total",
				Help:      "Inference attempts per model and result",
			},
			[]string{"model", "result"},
		),
		FetchedBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_body_bytes",
				Help:      "Decoded size of fetched documents",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		ExtractedSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extracted_content_chars",
				Help:      "Characters of extracted content sent to the model",
				Buckets:   []float64{500, 2000, 10000, 30000, 60000, 100000},
			},
		),
		DefectsFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "defects_found_total",
				Help:      "Defects reported per priority",
			},
			[]string{"priority"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_breaker_state",
				Help:      "Circuit breaker state per model (0 closed, 1 half-open, 2 open)",
			},
			[]string{"model"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAudit records a finished pipeline run
func (m *Metrics) RecordAudit(kind, outcome string) {
	m.AuditsTotal.WithLabelValues(kind, outcome).Inc()

	m.mu.Lock()
	m.snapshot.AuditsRun++
	if outcome != "success" {
		m.snapshot.AuditsFailed++
	}
	m.mu.Unlock()
}

// RecordStage records how long one pipeline stage took
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordModelAttempt counts one inference attempt
func (m *Metrics) RecordModelAttempt(model, result string) {
	m.ModelAttempts.WithLabelValues(model, result).Inc()
}

// ObserveFetch records the decoded size of a fetched document
func (m *Metrics) ObserveFetch(bytes int) {
	m.FetchedBytes.Observe(float64(bytes))
}

// ObserveExtracted records the size of extracted content
func (m *Metrics) ObserveExtracted(chars int) {
	m.ExtractedSize.Observe(float64(chars))
}

// RecordDefect counts one reported defect
func (m *Metrics) RecordDefect(priority string) {
	m.DefectsFound.WithLabelValues(priority).Inc()
}

// SetBreakerState publishes a breaker state by its ordinal
func (m *Metrics) SetBreakerState(model string, state int) {
	m.BreakerState.WithLabelValues(model).Set(float64(state))
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
