package middleware

import (
	"strconv" // Status code labels
	"time"    // Request latency

	"book_catalog/internal/metrics" // Prometheus collectors

	"github.com/gin-gonic/gin" // Gin web framework
)

// MetricsMiddleware records HTTP metrics for each request, labelled by route pattern
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next() // Do not measure the scrape itself
			return
		}
		start := time.Now()
		done := metrics.RequestStarted() // Track in-flight requests
		defer done()

		c.Next() // Process request

		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
