package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"podcast-rag-go/internal/config"

	"google.golang.org/genai"
)

type geminiClient struct {
	client *genai.Client
	model  string
	gen    GenerationParams
}

// NewGeminiClient creates a text generation client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini llm: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini llm: create client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiClient{client: client, model: model, gen: ParamsFromConfig(cfg.Generation)}, nil
}

func (g *geminiClient) ModelName() string { return g.model }

func (g *geminiClient) config() *genai.GenerateContentConfig {
	if g.gen.Temperature == nil && g.gen.TopP == nil && g.gen.MaxTokens == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if g.gen.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*g.gen.Temperature))
	}
	if g.gen.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*g.gen.TopP))
	}
	if g.gen.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*g.gen.MaxTokens)
	}
	return cfg
}

func (g *geminiClient) contents(prompt string) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
}

func (g *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents(prompt), g.config())
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (g *geminiClient) Stream(ctx context.Context, prompt string, w ChunkWriter) (string, error) {
	var answer strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, g.contents(prompt), g.config()) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		answer.WriteString(text)
		if w != nil {
			if werr := w.WriteChunk(text); werr != nil {
				return "", fmt.Errorf("failed to write chunk: %w", werr)
			}
		}
	}
	return strings.TrimSpace(answer.String()), nil
}
