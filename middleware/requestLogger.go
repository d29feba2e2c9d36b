package middleware

import (
	"time"

	"centromedico/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags each request with an id, stores a scoped logger under
// "logger" in the context, and logs the request once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		fields := []zap.Field{zap.String("requestId", requestID)}
		if sid := c.PostForm("CallSid"); sid != "" {
			fields = append(fields, zap.String("callSid", sid))
		}
		logger := utils.GetLogger().With(fields...)
		c.Set("logger", logger)
		c.Header("X-Request-Id", requestID)

		c.Next()

		logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", clientIP(c)),
			zap.Duration("latency", time.Since(start)))
	}
}
