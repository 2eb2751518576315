package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/service"
)

// ConversationHandler 处理与对话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetConversations 返回当前会话的全部消息。
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	respondOK(c, "success", h.service.GetConversationHistory(sess))
}

// GetSources 返回某条回答引用的来源，每条附带 200 字符预览。
func (h *ConversationHandler) GetSources(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	turn, err := strconv.Atoi(c.Param("turn"))
	if err != nil {
		respondError(c, ragerr.InvalidInput("sources", fmt.Errorf("invalid turn %q", c.Param("turn"))))
		return
	}
	sources, err := h.service.GetSources(sess, turn)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "success", sources)
}
