package embedding

import (
	"context"
	"errors"
	"fmt"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"

	"google.golang.org/genai"
)

type geminiClient struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGeminiClient creates an embedding client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, cfg config.EmbeddingConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embedding: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: create client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &geminiClient{client: client, model: model, dims: cfg.Dimensions}, nil
}

func (g *geminiClient) ModelName() string { return spaceName(g.model, g.dims) }

func (g *geminiClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{text}, TaskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *geminiClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return g.embed(ctx, texts, TaskDocument)
}

func (g *geminiClient) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}
	embedCfg := &genai.EmbedContentConfig{TaskType: taskType}
	if g.dims > 0 {
		d := int32(g.dims)
		embedCfg.OutputDimensionality = &d
	}

	log.Debugf("[GeminiEmbedding] model: %s, task: %s, inputs: %d", g.model, taskType, len(texts))
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, embedCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini embedding returned %d vectors for %d inputs", got, len(texts))
	}
	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini embedding returned empty vector for input %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}
