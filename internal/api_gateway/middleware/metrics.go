package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/card-authorization-gateway/internal/telemetry"
)

// unmatchedRoute labels requests that hit no route, keeping path cardinality bounded
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template.
func Metrics(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
