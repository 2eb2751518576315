// Package chunker 将长文本切分为带重叠的分块。
package chunker

import (
	"fmt"
	"unicode"

	"podcast-rag-go/internal/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// boundary 判断 p 是否为合法切分点（切分点位于分隔符之后）。
type boundary func(runes []rune, p int) bool

// 优先级：段落 > 行 > 句子 > 空白。都找不到时硬切。
var boundaries = []boundary{
	func(r []rune, p int) bool { return p >= 2 && r[p-1] == '\n' && r[p-2] == '\n' },
	func(r []rune, p int) bool { return r[p-1] == '\n' },
	func(r []rune, p int) bool { return p >= 2 && unicode.IsSpace(r[p-1]) && isSentenceEnd(r[p-2]) },
	func(r []rune, p int) bool { return unicode.IsSpace(r[p-1]) },
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Splitter 是递归字符切分器，长度与重叠均按 rune 计。
type Splitter struct {
	size    int
	overlap int
	minLen  int
}

// New 创建切分器。要求 size > 0 且 0 <= overlap < size。
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap, minLen: max(size/2, overlap+1)}, nil
}

// Size 返回分块最大长度。
func (s *Splitter) Size() int { return s.size }

// Overlap 返回相邻分块的最小重叠长度。
func (s *Splitter) Overlap() int { return s.overlap }

// Split 对文档做确定性切分。相邻分块至少重叠 overlap 个字符，首块从 0 开始，末块在文本末尾结束。
func (s *Splitter) Split(doc model.Document) []model.Chunk {
	runes := []rune(doc.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []model.Chunk
	emit := func(start, end int) {
		chunks = append(chunks, model.Chunk{
			Seq:    len(chunks),
			Origin: doc.Origin,
			Text:   string(runes[start:end]),
			Start:  start,
			End:    end,
		})
	}

	start := 0
	for {
		hardEnd := start + s.size
		if hardEnd >= n {
			emit(start, n)
			return chunks
		}
		end := s.cut(runes, start, hardEnd)
		emit(start, end)
		start = s.nextStart(runes, start, end)
	}
}

// cut 在 [start+minLen, hardEnd] 内从后向前寻找最高优先级的切分点。
func (s *Splitter) cut(runes []rune, start, hardEnd int) int {
	lowest := start + s.minLen
	for _, isBoundary := range boundaries {
		for p := hardEnd; p >= lowest; p-- {
			if isBoundary(runes, p) {
				return p
			}
		}
	}
	return hardEnd
}

// nextStart 从 end-overlap 向前对齐到最近的词首，最多回退 overlap 个字符。
func (s *Splitter) nextStart(runes []rune, start, end int) int {
	target := end - s.overlap
	if s.overlap == 0 {
		return target
	}
	floor := max(start+1, target-s.overlap)
	for p := target; p >= floor; p-- {
		if isWordStart(runes, p) {
			return p
		}
	}
	return target
}

func isWordStart(runes []rune, p int) bool {
	if p == 0 {
		return true
	}
	return unicode.IsSpace(runes[p-1]) && !unicode.IsSpace(runes[p])
}
