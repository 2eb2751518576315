package handler

import (
	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/service"
)

// SessionHandler 处理会话状态与重置。
type SessionHandler struct {
	service service.ConversationService
}

func NewSessionHandler(service service.ConversationService) *SessionHandler {
	return &SessionHandler{service: service}
}

// GetSession 返回会话状态。
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	info := sess.Info()
	respondOK(c, info.Status, info)
}

// Reset 清空文档与对话。
func (h *SessionHandler) Reset(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	h.service.Reset(c.Request.Context(), sess)
	info := sess.Info()
	respondOK(c, info.Status, info)
}
