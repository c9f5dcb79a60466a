package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/juan-materiarun/quartz-ai/internal/domain/audit"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/logging"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/monitoring"
	"github.com/juan-materiarun/quartz-ai/internal/infrastructure/resilience"
	"github.com/juan-materiarun/quartz-ai/internal/shared/utils"
)

const (
	serviceName = "Quartz AI Audit Service"
	version     = "1.0.0"
)

// Auditor runs the audit pipeline
type Auditor interface {
	Run(ctx context.Context, req audit.Request) (*audit.Result, error)
	Ready() bool
}

// BreakerStates reports per-model breaker state
type BreakerStates interface {
	States() map[string]resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	auditor  Auditor
	metrics  *monitoring.Metrics
	breakers BreakerStates
	models   []string
	sizes    *utils.SizeValidator
	logger   *logging.Logger
	started  time.Time
}

// Options configures the optional handler dependencies
type Options struct {
	Metrics  *monitoring.Metrics
	Breakers BreakerStates
	Models   []string
	MaxBody  int64
	Logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(auditor Auditor, opts Options) *Handlers {
	sizes := utils.DefaultSizeValidator()
	if opts.MaxBody > 0 {
		sizes = utils.NewSizeValidator(opts.MaxBody)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		auditor:  auditor,
		metrics:  opts.Metrics,
		breakers: opts.Breakers,
		models:   opts.Models,
		sizes:    sizes,
		logger:   logger.Named("http"),
		started:  time.Now(),
	}
}

// errorResponse is the failure body. It keeps the AuditResult shape so
// clients can render any response the same way.
type errorResponse struct {
	*audit.Result
	Remediation string                 `json:"remediation,omitempty"`
	Details     []audit.AttemptFailure `json:"details,omitempty"`
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": version,
		"endpoints": gin.H{
			"audit":   "POST /audit",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	if !h.auditor.Ready() {
		status = "degraded"
	}

	body := gin.H{
		"status":         status,
		"inference":      gin.H{"configured": h.auditor.Ready(), "models": h.models},
		"uptime_seconds": time.Since(h.started).Seconds(),
	}
	if h.metrics != nil {
		body["stats"] = h.metrics.Snapshot()
	}
	if h.breakers != nil {
		states := make(map[string]string)
		for model, s := range h.breakers.States() {
			states[model] = s.String()
		}
		body["breakers"] = states
	}
	c.JSON(http.StatusOK, body)
}

// Audit runs one audit for a {type, content} body
func (h *Handlers) Audit(c *gin.Context) {
	if err := h.sizes.ValidateSize(c.Request.ContentLength); err != nil {
		h.fail(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.sizes.Max())

	var req audit.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.fail(c, http.StatusBadRequest, "invalid request body: expected {\"type\": \"url\"|\"code\", \"content\": \"...\"}")
		return
	}

	result, err := h.auditor.Run(c.Request.Context(), req)
	if err != nil {
		h.auditError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AuditMethodNotAllowed rejects anything but POST on /audit
func (h *Handlers) AuditMethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	h.fail(c, http.StatusMethodNotAllowed, "method not allowed; submit audits with POST")
}

// MetricsJSON returns running totals as JSON
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *Handlers) auditError(c *gin.Context, err error) {
	status := audit.StatusCode(err)
	resp := errorResponse{Result: audit.ErrorResult(err.Error())}

	var exhausted *audit.ExhaustionError
	if errors.As(err, &exhausted) {
		resp.Remediation = exhausted.Remediation()
		resp.Details = exhausted.Attempts
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("audit request failed", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}

func (h *Handlers) fail(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Result: audit.ErrorResult(message)})
}
