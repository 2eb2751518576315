// Package embedding provides clients for interacting with embedding models.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"podcast-rag-go/internal/config"
)

// Task types distinguish query embeddings from document embeddings. Providers
// that support asymmetric retrieval use them to pick the right projection.
const (
	TaskQuery    = "RETRIEVAL_QUERY"
	TaskDocument = "RETRIEVAL_DOCUMENT"
)

// Client defines the interface for an embedding client.
type Client interface {
	// CreateEmbedding embeds a single query text.
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// CreateEmbeddings embeds document chunks, returning one vector per input in order.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// ModelName identifies the embedding space; vectors from different models are not comparable.
	ModelName() string
}

// NewClient creates a new embedding client based on the provider in the config.
func NewClient(ctx context.Context, cfg config.EmbeddingConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg)
	case "openai":
		return NewOpenAICompatibleClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}

// spaceName identifies an embedding space. A truncated output dimensionality
// yields vectors that are not comparable with full-size ones, so it is part of the name.
func spaceName(model string, dims int) string {
	if dims <= 0 {
		return model
	}
	return fmt.Sprintf("%s@%d", model, dims)
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
