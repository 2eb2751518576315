// Package testutil 提供测试用的确定性 embedding 与生成模型替身。
package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"podcast-rag-go/pkg/llm"
)

const fakeDims = 64

// FakeEmbedder 使用词袋哈希生成向量：共享词越多，余弦相似度越高。
type FakeEmbedder struct {
	Model    string
	QueryErr error
	BatchErr error

	mu           sync.Mutex
	QueryCalls   int
	BatchCalls   int
	BatchedTexts int
}

func NewFakeEmbedder() *FakeEmbedder { return &FakeEmbedder{Model: "fake-embedding"} }

func (f *FakeEmbedder) ModelName() string { return f.Model }

func (f *FakeEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.QueryCalls++
	err := f.QueryErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return Embed(text), ctx.Err()
}

func (f *FakeEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.BatchCalls++
	f.BatchedTexts += len(texts)
	err := f.BatchErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Embed(t)
	}
	return out, ctx.Err()
}

// Calls 返回查询与批量调用次数。
func (f *FakeEmbedder) Calls() (query, batch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.QueryCalls, f.BatchCalls
}

// Embed 计算文本的词袋向量。维度 0 带一个小常量，保证空文本也不是零向量。
func Embed(text string) []float32 {
	v := make([]float32, fakeDims)
	v[0] = 0.01
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[1+int(h.Sum32()%(fakeDims-1))]++
	}
	return v
}

// FakeGenerator 记录收到的提示词，并按 Respond 返回结果。
type FakeGenerator struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func NewFakeGenerator(answer string) *FakeGenerator {
	return &FakeGenerator{Respond: func(string) (string, error) { return answer, nil }}
}

func (g *FakeGenerator) ModelName() string { return "fake-llm" }

func (g *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.Prompts = append(g.Prompts, prompt)
	g.mu.Unlock()
	return g.Respond(prompt)
}

// Stream 将回答按空格拆成多段依次写出。
func (g *FakeGenerator) Stream(ctx context.Context, prompt string, w llm.ChunkWriter) (string, error) {
	answer, err := g.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if w != nil {
		for _, part := range strings.SplitAfter(answer, " ") {
			if part == "" {
				continue
			}
			if err := w.WriteChunk(part); err != nil {
				return "", err
			}
		}
	}
	return answer, nil
}

// LastPrompt 返回最近一次收到的提示词。
func (g *FakeGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Prompts) == 0 {
		return ""
	}
	return g.Prompts[len(g.Prompts)-1]
}

// PromptCount 返回调用次数。
func (g *FakeGenerator) PromptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}
