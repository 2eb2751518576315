// Package conversation 保存单个会话的有序对话记录及每条回答引用的来源。
package conversation

import (
	"errors"
	"fmt"
	"time"

	"podcast-rag-go/internal/model"
)

const (
	// Greeting 是会话初始化或重置后的第一条助手消息。
	Greeting = "🎙️ Silahkan upload file transcript podcast YouTube (PDF/TXT) untuk memulai diskusi tentang kontennya."
	// Fallback 是尚未上传文档时对任何问题的固定回答。
	Fallback = "Silahkan upload file transcript podcast terlebih dahulu."
)

var (
	ErrTurnOutOfRange = errors.New("turn index out of range")
	ErrNotAssistant   = errors.New("sources can only be attached to assistant turns")
)

// State 是只追加的对话记录。非并发安全，由 session 负责加锁。
type State struct {
	turns   []model.Turn
	sources map[int][]model.Source
	now     func() time.Time
}

// New 创建只包含问候语的对话。
func New() *State {
	s := &State{now: time.Now}
	s.Reset()
	return s
}

// Reset 清空所有消息和来源，只保留问候语。
func (s *State) Reset() {
	s.turns = []model.Turn{{Role: model.RoleAssistant, Content: Greeting, Timestamp: s.now()}}
	s.sources = make(map[int][]model.Source)
}

// Append 追加一条消息并返回它的序号。
func (s *State) Append(role model.Role, content string) int {
	s.turns = append(s.turns, model.Turn{Role: role, Content: content, Timestamp: s.now()})
	return len(s.turns) - 1
}

// AttachSources 为指定助手消息绑定来源，重复调用会覆盖。
func (s *State) AttachSources(idx int, sources []model.Source) error {
	if idx < 0 || idx >= len(s.turns) {
		return fmt.Errorf("%w: %d", ErrTurnOutOfRange, idx)
	}
	if s.turns[idx].Role != model.RoleAssistant {
		return fmt.Errorf("%w: turn %d is %s", ErrNotAssistant, idx, s.turns[idx].Role)
	}
	s.sources[idx] = append([]model.Source(nil), sources...)
	return nil
}

// Sources 返回指定消息的来源副本，没有来源时返回 nil。
func (s *State) Sources(idx int) ([]model.Source, error) {
	if idx < 0 || idx >= len(s.turns) {
		return nil, fmt.Errorf("%w: %d", ErrTurnOutOfRange, idx)
	}
	src, ok := s.sources[idx]
	if !ok {
		return nil, nil
	}
	return append([]model.Source(nil), src...), nil
}

// Turns 返回全部消息的副本，来源已填入对应消息。
func (s *State) Turns() []model.Turn {
	out := make([]model.Turn, len(s.turns))
	for i, t := range s.turns {
		if src, ok := s.sources[i]; ok {
			t.Sources = append([]model.Source(nil), src...)
		}
		out[i] = t
	}
	return out
}

func (s *State) Len() int { return len(s.turns) }
