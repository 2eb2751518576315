// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/ragerr"
)

// ErrorMessage 是展示给用户的错误文字。
func ErrorMessage(err error) string {
	return "Terjadi kesalahan: " + err.Error()
}

// statusOf 将错误分类映射为 HTTP 状态码。
func statusOf(err error) int {
	switch ragerr.KindOf(err) {
	case ragerr.KindInvalidInput:
		return http.StatusBadRequest
	case ragerr.KindIngestion:
		return http.StatusUnprocessableEntity
	case ragerr.KindRetrieval, ragerr.KindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	c.JSON(status, gin.H{"code": status, "message": ErrorMessage(err), "data": nil})
}
