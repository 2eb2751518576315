package model

import "time"

// Role 区分对话中的发言方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source 是回答引用的一段原文。
type Source struct {
	Text   string  `json:"text"`
	Origin string  `json:"origin"`
	Score  float64 `json:"score"`
}

// Turn 代表对话中的一条消息。
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SourcesFromResults 将检索结果转换为可展示的来源列表。
func SourcesFromResults(results []SearchResult) []Source {
	if len(results) == 0 {
		return nil
	}
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{Text: r.Chunk.Text, Origin: r.Chunk.Origin, Score: r.Score})
	}
	return out
}
