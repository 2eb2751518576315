package handler

import (
	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/service"
	"podcast-rag-go/internal/session"
)

// Deps 汇总注册路由所需的依赖。
type Deps struct {
	Sessions      *session.Manager
	Ingester      Ingester
	Chat          service.ChatService
	Conversation  service.ConversationService
	MaxUploadSize int64
}

// RegisterRoutes 在 /api/v1 下注册全部接口，所有接口都绑定到 X-Session-ID 指定的会话。
func RegisterRoutes(r *gin.Engine, d Deps) {
	documentHandler := NewDocumentHandler(d.Ingester, d.MaxUploadSize)
	sessionHandler := NewSessionHandler(d.Conversation)
	chatHandler := NewChatHandler(d.Chat)
	conversationHandler := NewConversationHandler(d.Conversation)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.SessionMiddleware(d.Sessions))
	{
		apiV1.POST("/documents", documentHandler.Upload)

		apiV1.GET("/session", sessionHandler.GetSession)
		apiV1.POST("/session/reset", sessionHandler.Reset)

		apiV1.POST("/chat", chatHandler.Ask)
		apiV1.GET("/chat/ws", chatHandler.Handle)

		apiV1.GET("/conversation", conversationHandler.GetConversations)
		apiV1.GET("/conversation/:turn/sources", conversationHandler.GetSources)
	}
}
