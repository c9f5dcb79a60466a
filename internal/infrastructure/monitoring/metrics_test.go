package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordAudit("url", "success")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.AuditsTotal.WithLabelValues("url", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AuditsTotal.WithLabelValues("url", "success")))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("POST", "/audit", "200", 0, 10)
	m.RecordHTTPRequest("POST", "/audit", "502", 0, 10)
	m.RecordAudit("code", "success")
	m.RecordAudit("code", "malformed")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(2), s.AuditsRun)
	assert.Equal(t, int64(1), s.AuditsFailed)
	assert.GreaterOrEqual(t, s.UptimeSeconds, 0.0)
}

func TestModelAttempts(t *testing.T) {
	m := NewMetrics()
	m.RecordModelAttempt("model-a", "failure")
	m.RecordModelAttempt("model-a", "failure")
	m.RecordModelAttempt("model-b", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ModelAttempts.WithLabelValues("model-a", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelAttempts.WithLabelValues("model-b", "success")))
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := NewMetrics()
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordDefect("Critical")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `quartz_defects_found_total{priority="Critical"} 1`))
	assert.Contains(t, body, "quartz_uptime_seconds")
}

func TestStageTimer(t *testing.T) {
	m := NewMetrics()
	NewStageTimer(m, StageFetch).StopErr(nil)
	NewStageTimer(m, StageFetch).StopErr(errors.New("x"))
	NewStageTimer(nil, StageParse).Stop("ok")

	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}
