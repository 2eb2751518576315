// Package llm provides clients for interacting with Large Language Models.
package llm

import (
	"context"
	"fmt"
	"strings"

	"podcast-rag-go/internal/config"
)

// ChunkWriter receives partial output while a response is being streamed.
type ChunkWriter interface {
	WriteChunk(text string) error
}

// ChunkWriterFunc adapts a function to ChunkWriter.
type ChunkWriterFunc func(text string) error

func (f ChunkWriterFunc) WriteChunk(text string) error { return f(text) }

// Client defines the interface for an LLM client. Prompts are single-turn:
// the prompt carries the full instruction, context and question.
type Client interface {
	// Generate returns the complete response text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream forwards partial output to w and returns the complete response text.
	Stream(ctx context.Context, prompt string, w ChunkWriter) (string, error)
	ModelName() string
}

// GenerationParams 控制生成行为，nil 字段表示使用模型默认值。
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// ParamsFromConfig 只注入非零的生成参数。
func ParamsFromConfig(cfg config.LLMGenerationConfig) GenerationParams {
	var gp GenerationParams
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		gp.Temperature = &t
	}
	if cfg.TopP != 0 {
		p := cfg.TopP
		gp.TopP = &p
	}
	if cfg.MaxTokens != 0 {
		m := cfg.MaxTokens
		gp.MaxTokens = &m
	}
	return gp
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg)
	case "openai":
		return NewOpenAICompatibleClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
