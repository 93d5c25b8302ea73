package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/knowledge-hub/internal/hub/biz"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

// DocumentHandler 处理文档管理请求。
type DocumentHandler struct {
	service biz.Service
}

// NewDocumentHandler 创建文档处理器。
func NewDocumentHandler(service biz.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// ListResponse 文档列表响应。
type ListResponse struct {
	Total     int64       `json:"total"`
	Documents interface{} `json:"documents"`
}

// Upload 接收 multipart 文件并同步摄取。
// POST /v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	f, err := file.Open()
	if err != nil {
		writeError(c, huberrors.ErrStorage.WithCause(err))
		return
	}
	defer f.Close()

	doc, err := h.service.Upload(c.Request.Context(), file.Filename, file.Size, f)
	if err != nil {
		writeError(c, err)
		return
	}

	writeData(c, http.StatusCreated, doc)
}

// Get 获取文档详情。
// GET /v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, doc)
}

// List 分页列出文档。
// GET /v1/documents?status=&offset=&limit=
func (h *DocumentHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	total, docs, err := h.service.List(c.Request.Context(), c.Query("status"), offset, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, ListResponse{Total: total, Documents: docs})
}

// Delete 删除文档及其块、向量和原始文件。
// DELETE /v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, nil)
}

// Reingest 重新摄取单个文档。
// POST /v1/documents/:id/reingest
func (h *DocumentHandler) Reingest(c *gin.Context) {
	result, err := h.service.Reingest(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, result)
}

// ReingestFailed 批量重新摄取全部 error 状态文档。
// POST /v1/documents/reingest
func (h *DocumentHandler) ReingestFailed(c *gin.Context) {
	results, err := h.service.ReingestFailed(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, results)
}
