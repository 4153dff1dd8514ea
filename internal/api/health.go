package api

import (
	"context"  // Ping deadline
	"net/http" // HTTP status codes
	"time"     // Ping timeout

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a dependency checked by /healthz
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// HealthHandler answers 200 when every dependency responds and 503 otherwise
func HealthHandler(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		for _, check := range checks {
			if err := check.Pinger.Ping(ctx); err != nil {
				logrus.WithFields(logrus.Fields{
					"dependency": check.Name,  // Failing dependency
					"error":      err.Error(), // Error message
				}).Warn("Health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": check.Name})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
