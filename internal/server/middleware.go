package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partnerpulse/creditscope/pkg/telemetry"
)

// MetricsMiddleware records per-request counters and latency. Unmatched
// routes are grouped under "unmatched" to keep label cardinality bounded.
func MetricsMiddleware(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPIRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
