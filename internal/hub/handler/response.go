// Package handler provides HTTP handlers for the knowledge-hub service.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeData writes a success envelope with payload.
func writeData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Code: 0, Message: "success", Data: data})
}

// writeError maps any error to its registered code and HTTP status.
func writeError(c *gin.Context, err error) {
	e := huberrors.FromError(err)
	c.JSON(e.HTTPStatus(), ErrorResponse{
		Code:    e.Code,
		Message: e.Message(c.GetHeader("Accept-Language")),
	})
}

// writeBadRequest rejects a malformed request body or parameter.
func writeBadRequest(c *gin.Context, err error) {
	e := huberrors.ErrInvalidRequest
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    e.Code,
		Message: err.Error(),
	})
}
