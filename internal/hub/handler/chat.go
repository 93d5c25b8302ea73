package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/knowledge-hub/internal/hub/biz"
	"github.com/kart-io/knowledge-hub/internal/hub/metrics"
)

// ChatHandler 处理问答与统计请求。
type ChatHandler struct {
	service biz.Service
}

// NewChatHandler 创建问答处理器。
func NewChatHandler(service biz.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatRequest 问答请求。
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

// Chat 检索知识库并生成带引用的答案。
// POST /v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	result, err := h.service.Query(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, result)
}

// Stats 返回知识库状态统计与运行指标。
// GET /v1/stats
func (h *ChatHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{
		"knowledge_base": stats,
		"runtime":        metrics.GetHubMetrics().Stats(),
	})
}
