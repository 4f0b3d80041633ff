package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
)

// Logger returns a Gin middleware that injects a request-scoped logger
// and logs request completion.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := uuid.New().String()

		reqLog := log.WithFields(logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "api",
		})
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Header("X-Request-ID", requestID)

		c.Next()

		latency := time.Since(start)
		entry := reqLog.WithFields(logger.Fields{
			"method":               c.Request.Method,
			"path":                 path,
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: latency.Milliseconds(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("Request completed")
		} else {
			entry.Info("Request completed")
		}
	}
}
