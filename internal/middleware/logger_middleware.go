package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/logger"
)

// RequestLogger пишет по строке на запрос. 5xx идут уровнем Error, 4xx уровнем Warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.Component("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if id, ok := Identity(c); ok {
			kv = append(kv, "user_id", id.UserID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("Request failed", kv...)
		case status >= 400:
			log.Warn("Request rejected", kv...)
		default:
			log.Info("Request", kv...)
		}
	}
}

// Recovery перехватывает панику обработчика, логирует ее и отвечает 500
func Recovery(log *logger.Logger) gin.HandlerFunc {
	log = log.Component("Recovery")
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("Panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		AbortWithError(c, 500, "Something went wrong")
	})
}
