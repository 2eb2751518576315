package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-rag-go/internal/config"
)

type countingClient struct {
	mu        sync.Mutex
	single    int
	batched   [][]string
	failBatch bool
}

func (c *countingClient) ModelName() string { return "count-model" }

func (c *countingClient) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.single++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingClient) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failBatch {
		return nil, errors.New("quota exceeded")
	}
	c.batched = append(c.batched, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 2}
	}
	return out, nil
}

func TestOpenAICompatibleBatchOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "bb"}, req.Input)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[2,2]},{"index":0,"embedding":[1,1]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient(config.EmbeddingConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	vectors, err := c.CreateEmbeddings(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, vectors)
	assert.Equal(t, "m", c.ModelName())
}

func TestOpenAICompatibleErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient(config.EmbeddingConfig{BaseURL: srv.URL})
	_, err := c.CreateEmbedding(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.EmbeddingConfig{Provider: "cohere"})
	assert.Error(t, err)
}

func TestNewClientGeminiRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.EmbeddingConfig{Provider: "gemini"})
	assert.Error(t, err)
}

func TestLRUCacheQuery(t *testing.T) {
	inner := &countingClient{}
	c := WrapLRU(inner, 16, time.Minute)

	v1, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	v1[0] = 99
	v2, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.single)
	assert.Equal(t, float32(5), v2[0])
	assert.Equal(t, "count-model", c.ModelName())
}

func TestLRUCacheBatchForwardsOnlyMisses(t *testing.T) {
	inner := &countingClient{}
	c := WrapLRU(inner, 16, time.Minute)
	ctx := context.Background()

	_, err := c.CreateEmbeddings(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	vectors, err := c.CreateEmbeddings(ctx, []string{"bb", "ccc", "a"})
	require.NoError(t, err)

	require.Len(t, inner.batched, 2)
	assert.Equal(t, []string{"ccc"}, inner.batched[1])
	assert.Equal(t, [][]float32{{2, 2}, {3, 2}, {1, 2}}, vectors)
}

func TestLRUCacheSeparatesTasks(t *testing.T) {
	inner := &countingClient{}
	c := WrapLRU(inner, 16, time.Minute)
	ctx := context.Background()

	_, err := c.CreateEmbeddings(ctx, []string{"same"})
	require.NoError(t, err)
	_, err = c.CreateEmbedding(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.single)
}

func TestLRUCacheDisabled(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, Client(inner), WrapLRU(inner, 0, time.Minute))
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	inner := &countingClient{failBatch: true}
	c := WrapLRU(inner, 16, time.Minute)
	_, err := c.CreateEmbeddings(context.Background(), []string{"a"})
	require.Error(t, err)

	inner.failBatch = false
	vectors, err := c.CreateEmbeddings(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Len(t, inner.batched, 1)
}

func TestRedisCacheFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	inner := &countingClient{}
	c := WrapRedis(inner, rdb, time.Minute)
	v, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, v)
	assert.Equal(t, 1, inner.single)
}

func TestBuildCacheKey(t *testing.T) {
	k1 := buildCacheKey("m", TaskQuery, "x")
	k2 := buildCacheKey("m", TaskDocument, "x")
	k3 := buildCacheKey("", TaskQuery, "x")
	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k3, "embed:unknown:")
}

func TestModelNameIncludesDimensions(t *testing.T) {
	full := NewOpenAICompatibleClient(config.EmbeddingConfig{Model: "m"})
	short := NewOpenAICompatibleClient(config.EmbeddingConfig{Model: "m", Dimensions: 768})
	assert.Equal(t, "m", full.ModelName())
	assert.Equal(t, "m@768", short.ModelName())

	assert.NotEqual(t,
		buildCacheKey(full.ModelName(), TaskDocument, "x"),
		buildCacheKey(short.ModelName(), TaskDocument, "x"))
}

func TestRequestUsesRawModelWithDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		assert.Equal(t, 2, req.Dimensions)
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,1]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient(config.EmbeddingConfig{BaseURL: srv.URL, Model: "m", Dimensions: 2})
	_, err := c.CreateEmbedding(context.Background(), "q")
	require.NoError(t, err)
}
