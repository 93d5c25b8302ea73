package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/logger"
)

// AccessLog 记录每个请求的方法、路径、状态码和耗时。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
