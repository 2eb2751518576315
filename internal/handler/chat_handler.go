package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/service"
	"podcast-rag-go/pkg/llm"
	"podcast-rag-go/pkg/log"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatHandler 负责处理问答请求（HTTP 与 WebSocket）。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask 处理一次非流式问答。
func (h *ChatHandler) Ask(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, ragerr.InvalidInput("ask", fmt.Errorf("invalid request body: %w", err)))
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), sess, req.Question, nil)
	if err != nil {
		log.Errorf("[ChatHandler] 问答失败, session=%s: %v", sess.ID, err)
		respondError(c, err)
		return
	}
	respondOK(c, "success", result)
}

// Handle 处理一个 WebSocket 连接。每个文本帧是一个问题（纯文本或 {"question": "..."}），
// 回复依次为若干 {"chunk": "..."} 分块、一个 answer 帧和一个 completion 通知。
func (h *ChatHandler) Handle(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("[ChatHandler] WebSocket 连接已建立, session=%s", sess.ID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("[ChatHandler] 从 WebSocket 读取消息失败: %v", err)
			}
			break
		}
		question := parseQuestion(message)

		writer := llm.ChunkWriterFunc(func(text string) error {
			return writeJSON(conn, map[string]string{"chunk": text})
		})
		result, err := h.chatService.Ask(c.Request.Context(), sess, question, writer)
		if err != nil {
			log.Errorf("[ChatHandler] 处理流式响应失败, session=%s: %v", sess.ID, err)
			_ = writeJSON(conn, map[string]string{"error": ErrorMessage(err)})
			sendCompletion(conn)
			continue
		}
		if err := writeJSON(conn, map[string]interface{}{
			"type":     "answer",
			"turn":     result.TurnIndex,
			"answer":   result.Answer,
			"sources":  result.Sources,
			"grounded": result.Grounded,
		}); err != nil {
			log.Warnf("[ChatHandler] 写入 WebSocket 失败: %v", err)
			break
		}
		sendCompletion(conn)
	}
}

// parseQuestion 兼容 JSON 与纯文本两种帧格式。
func parseQuestion(message []byte) string {
	if len(message) > 0 && message[0] == '{' {
		var req askRequest
		if err := json.Unmarshal(message, &req); err == nil {
			return req.Question
		}
	}
	return strings.TrimSpace(string(message))
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(conn *websocket.Conn) {
	_ = writeJSON(conn, map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	})
}
