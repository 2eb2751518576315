// Package session 管理每个用户会话的当前索引、对话记录与状态。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"podcast-rag-go/internal/conversation"
	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/vectorindex"
	"podcast-rag-go/pkg/log"
)

// StatusIdle 是尚未加载文档时的状态文字。
const StatusIdle = "⏳ Belum ada file transcript"

// StatusReady 返回文档处理成功后的状态文字。
func StatusReady(origin string) string {
	return fmt.Sprintf("✅ %s berhasil diproses!", origin)
}

// ErrSessionClosed 表示会话已被淘汰，不能再安装新索引。
var ErrSessionClosed = errors.New("session has been evicted")

// Session 持有一个索引和一份对话。
// opMu 串行化摄取、问答与重置；mu 只保护字段读写，读操作不会被外部调用阻塞。
type Session struct {
	ID string

	opMu sync.Mutex

	mu     sync.RWMutex
	index  vectorindex.Index
	conv   *conversation.State
	status string
	origin string
	closed bool
}

// Info 是会话状态的快照。
type Info struct {
	ID     string `json:"session_id"`
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Origin string `json:"origin,omitempty"`
	Turns  int    `json:"turns"`
}

func New(id string) *Session {
	return &Session{ID: id, conv: conversation.New(), status: StatusIdle}
}

// Exclusive 在会话的操作锁内执行 fn。
func (s *Session) Exclusive(fn func() error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return fn()
}

// Index 返回当前索引，未就绪时为 nil。
func (s *Session) Index() vectorindex.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{ID: s.ID, Status: s.status, Ready: s.index != nil, Origin: s.origin, Turns: s.conv.Len()}
}

// Swap 原子地替换索引并返回旧索引，由调用方负责关闭。
// 会话已被淘汰时关闭传入的索引并返回 ErrSessionClosed。
func (s *Session) Swap(ctx context.Context, idx vectorindex.Index, origin string) (vectorindex.Index, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		closeIndex(ctx, s.ID, idx)
		return nil, ErrSessionClosed
	}
	old := s.index
	s.index = idx
	s.origin = origin
	s.status = StatusReady(origin)
	s.mu.Unlock()
	return old, nil
}

// Reset 丢弃索引并把对话恢复为问候语。
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	old := s.index
	s.index = nil
	s.origin = ""
	s.status = StatusIdle
	s.conv.Reset()
	s.mu.Unlock()

	closeIndex(ctx, s.ID, old)
}

// AppendExchange 同时追加一问一答，并在来源非空时绑定到回答上，返回回答的序号。
func (s *Session) AppendExchange(question, answer string, sources []model.Source) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Append(model.RoleUser, question)
	idx := s.conv.Append(model.RoleAssistant, answer)
	if len(sources) > 0 {
		// 序号刚由 Append 返回且为助手消息，不会出错
		_ = s.conv.AttachSources(idx, sources)
	}
	return idx
}

func (s *Session) Turns() []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Turns()
}

func (s *Session) Sources(turn int) ([]model.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Sources(turn)
}

// detach 将会话标记为已关闭并取出当前索引，由调用方负责释放。
func (s *Session) detach() vectorindex.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	old := s.index
	s.index = nil
	return old
}

func closeIndex(ctx context.Context, id string, idx vectorindex.Index) {
	if idx == nil {
		return
	}
	if err := idx.Close(ctx); err != nil {
		log.Warnf("[Session] 关闭索引失败, session=%s: %v", id, err)
	}
}
