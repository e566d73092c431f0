package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/taskdesk/pkg/metrics"
)

const (
	metricsPath    = "/metrics"
	unmatchedRoute = "unmatched"
)

// Metrics observes request latency labelled by route template, never by raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
