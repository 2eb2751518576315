package service

import (
	"context"

	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/pkg/log"
)

// previewRunes 是来源预览保留的字符数。
const previewRunes = 200

// SourcePreview 是展示用的来源条目。
type SourcePreview struct {
	Index   int     `json:"index"`
	Origin  string  `json:"origin"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
	Text    string  `json:"text"`
}

// ConversationService 定义了对话记录相关的业务逻辑接口。
type ConversationService interface {
	GetConversationHistory(sess *session.Session) []model.Turn
	GetSources(sess *session.Session, turn int) ([]SourcePreview, error)
	Reset(ctx context.Context, sess *session.Session)
}

type conversationService struct{}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService() ConversationService {
	return &conversationService{}
}

// GetConversationHistory 获取会话的完整消息历史。
func (s *conversationService) GetConversationHistory(sess *session.Session) []model.Turn {
	return sess.Turns()
}

// GetSources 返回某条回答引用的来源及其预览。
func (s *conversationService) GetSources(sess *session.Session, turn int) ([]SourcePreview, error) {
	sources, err := sess.Sources(turn)
	if err != nil {
		return nil, ragerr.InvalidInput("sources", err)
	}
	out := make([]SourcePreview, 0, len(sources))
	for i, src := range sources {
		out = append(out, SourcePreview{
			Index:   i + 1,
			Origin:  src.Origin,
			Score:   src.Score,
			Preview: Preview(src.Text),
			Text:    src.Text,
		})
	}
	return out, nil
}

// Reset 等待进行中的操作结束后清空会话。
func (s *conversationService) Reset(ctx context.Context, sess *session.Session) {
	_ = sess.Exclusive(func() error {
		sess.Reset(ctx)
		return nil
	})
	log.Infof("[ConversationService] 会话已重置: %s", sess.ID)
}

// Preview 截取前 200 个字符，超出时追加省略号。
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
