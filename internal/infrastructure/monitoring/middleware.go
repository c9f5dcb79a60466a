package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(c.Request.Method, path, status, time.Since(start), respSize)
	}
}

// StageTimer measures one pipeline stage
type StageTimer struct {
	start   time.Time
	metrics *Metrics
	stage   string
}

// NewStageTimer starts timing a stage. A nil Metrics yields a no-op timer.
func NewStageTimer(metrics *Metrics, stage string) *StageTimer {
	return &StageTimer{
		start:   time.Now(),
		metrics: metrics,
		stage:   stage,
	}
}

// Stop records the elapsed time with the given status
func (t *StageTimer) Stop(status string) time.Duration {
	elapsed := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordStage(t.stage, status, elapsed)
	}
	return elapsed
}

// StopErr records "ok" or "error" depending on err
func (t *StageTimer) StopErr(err error) time.Duration {
	if err != nil {
		return t.Stop("error")
	}
	return t.Stop("ok")
}
