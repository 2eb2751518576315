package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"podcast-rag-go/pkg/log"
)

// cacheBackend stores vectors by key. Lookups that fail are treated as misses.
type cacheBackend interface {
	name() string
	get(ctx context.Context, key string) ([]float32, bool)
	set(ctx context.Context, key string, vector []float32)
}

type cachedClient struct {
	next    Client
	backend cacheBackend
}

func wrap(next Client, backend cacheBackend) Client {
	return &cachedClient{next: next, backend: backend}
}

func buildCacheKey(modelName, taskType, text string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + modelName + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func (c *cachedClient) ModelName() string { return c.next.ModelName() }

func (c *cachedClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := buildCacheKey(c.next.ModelName(), TaskQuery, text)
	if cached, ok := c.backend.get(ctx, key); ok {
		log.Debugf("[EmbeddingCache] %s 命中查询向量缓存", c.backend.name())
		return cloneEmbedding(cached), nil
	}
	vector, err := c.next.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	c.backend.set(ctx, key, cloneEmbedding(vector))
	return vector, nil
}

// CreateEmbeddings only forwards the texts that miss the cache, preserving input order.
func (c *cachedClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		keys[i] = buildCacheKey(c.next.ModelName(), TaskDocument, t)
		if cached, ok := c.backend.get(ctx, keys[i]); ok {
			out[i] = cloneEmbedding(cached)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	log.Debugf("[EmbeddingCache] %s 批量查询 %d 条, 命中 %d 条", c.backend.name(), len(texts), len(texts)-len(missIdx))
	if len(missTexts) == 0 {
		return out, nil
	}
	vectors, err := c.next.CreateEmbeddings(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d inputs", len(vectors), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		c.backend.set(ctx, keys[i], cloneEmbedding(vectors[j]))
	}
	return out, nil
}
