package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts all audit service routes on r. guards run before the
// audit handler only.
func (h *Handlers) Register(r gin.IRouter, guards ...gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/audit", append(guards, h.Audit)...)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		r.Handle(m, "/audit", h.AuditMethodNotAllowed)
	}

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	r.GET("/metrics/json", h.MetricsJSON)
}
