// Package router provides knowledge-hub service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"

	"github.com/kart-io/knowledge-hub/internal/hub/handler"
	"github.com/kart-io/knowledge-hub/internal/hub/middleware"
)

// Register 注册全部路由。文档管理与统计接口要求 admin 角色，问答接口仅需认证。
func Register(
	engine *gin.Engine,
	docHandler *handler.DocumentHandler,
	chatHandler *handler.ChatHandler,
	authConfig *middleware.AuthConfig,
) {
	logger.Info("Registering knowledge-hub routes...")

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	v1 := engine.Group("/v1", middleware.Auth(authConfig))
	{
		docs := v1.Group("/documents", middleware.RequireAdmin())
		{
			docs.GET("", docHandler.List)
			docs.GET("/:id", docHandler.Get)
			docs.POST("", docHandler.Upload)
			docs.DELETE("/:id", docHandler.Delete)
			docs.POST("/:id/reingest", docHandler.Reingest)
			docs.POST("/reingest", docHandler.ReingestFailed)
		}

		v1.POST("/chat", chatHandler.Chat)
		v1.GET("/stats", middleware.RequireAdmin(), chatHandler.Stats)
	}

	logger.Info("HTTP routes registered")
}
