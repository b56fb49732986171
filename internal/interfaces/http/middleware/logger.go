// internal/interfaces/http/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/pkg/metrics"
)

// Logger logs every HTTP request through logrus and records request metrics
func Logger(logger logrus.FieldLogger, httpMetrics *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		httpMetrics.Observe(c.FullPath(), c.Request.Method, status, latency)

		entry := logger.WithFields(logrus.Fields{
			"request_id":    c.GetString("request_id"),
			"session_id":    GetSessionID(c),
			"method":        c.Request.Method,
			"path":          path,
			"status_code":   status,
			"latency":       latency.String(),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		})

		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}

		// Log based on status code
		if status >= 500 {
			entry.Error("HTTP request completed with server error")
		} else if status >= 400 {
			entry.Warn("HTTP request completed with client error")
		} else {
			entry.Info("HTTP request completed successfully")
		}
	}
}
