package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"fb-video-manager/infrastructure/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.GetLogger().WithFields(map[string]interface{}{
			"method":   ctx.Request.Method,
			"path":     ctx.Request.URL.Path,
			"status":   ctx.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   ctx.ClientIP(),
		}).Info("Request handled")
	}
}
