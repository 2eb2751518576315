package middleware

import (
	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/session"
)

const (
	// SessionHeader 是客户端携带会话 ID 的请求头。
	SessionHeader = "X-Session-ID"
	SessionIDKey  = "sessionID"
	sessionKey    = "session"
)

// SessionMiddleware 根据请求头取得或创建会话，并在响应头中回写会话 ID。
// WebSocket 客户端无法设置请求头时可以使用 session_id 查询参数。
func SessionMiddleware(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id = c.Query("session_id")
		}
		sess, _ := manager.GetOrCreate(id)
		c.Set(sessionKey, sess)
		c.Set(SessionIDKey, sess.ID)
		c.Header(SessionHeader, sess.ID)
		c.Next()
	}
}

// CurrentSession 返回中间件放入上下文的会话。
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
