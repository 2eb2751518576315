package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-rag-go/internal/model"
)

func chunksOf(texts ...string) []model.Chunk {
	out := make([]model.Chunk, len(texts))
	for i, t := range texts {
		out[i] = model.Chunk{Seq: i, Origin: "ep.txt", Text: t}
	}
	return out
}

func buildMemory(t *testing.T, chunks []model.Chunk, vectors [][]float32) Index {
	t.Helper()
	idx, err := NewMemoryStore().Build(context.Background(), BuildInput{
		Origin:       "ep.txt",
		ModelVersion: "test-model",
		Chunks:       chunks,
		Vectors:      vectors,
	})
	require.NoError(t, err)
	return idx
}

func TestMemoryQueryOrdering(t *testing.T) {
	idx := buildMemory(t, chunksOf("a", "b", "c", "d"), [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{-1, 0, 0},
	})

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "c", results[1].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryQueryKLargerThanIndex(t *testing.T) {
	idx := buildMemory(t, chunksOf("a", "b"), [][]float32{{1, 0}, {0, 1}})
	results, err := idx.Query(context.Background(), []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryTieBreakBySeq(t *testing.T) {
	idx := buildMemory(t, chunksOf("first", "second", "third"), [][]float32{{0, 1}, {0, 2}, {0, 3}})
	results, err := idx.Query(context.Background(), []float32{0, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Chunk.Seq)
	}
}

func TestMemoryScoresInRange(t *testing.T) {
	idx := buildMemory(t, chunksOf("x", "y"), [][]float32{{3, 4}, {-3, -4}})
	results, err := idx.Query(context.Background(), []float32{3, 4}, 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, -1.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.InDelta(t, -1.0, results[1].Score, 1e-6)
}

func TestMemoryEmptyIndex(t *testing.T) {
	idx := buildMemory(t, nil, nil)
	assert.Equal(t, 0, idx.Len())
	results, err := idx.Query(context.Background(), []float32{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestMemoryDimensionMismatch(t *testing.T) {
	idx := buildMemory(t, chunksOf("a"), [][]float32{{1, 0}})
	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryBuildValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Build(ctx, BuildInput{Chunks: chunksOf("a", "b"), Vectors: [][]float32{{1}}})
	assert.Error(t, err)

	_, err = store.Build(ctx, BuildInput{Chunks: chunksOf("a", "b"), Vectors: [][]float32{{1, 0}, {1}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Build(ctx, BuildInput{Chunks: chunksOf("a"), Vectors: [][]float32{{0, 0}}})
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestMemoryBuildCopiesInput(t *testing.T) {
	chunks := chunksOf("a")
	vectors := [][]float32{{1, 0}}
	idx := buildMemory(t, chunks, vectors)
	chunks[0].Text = "mutated"
	vectors[0][0] = -1

	results, err := idx.Query(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", results[0].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "test-model", idx.ModelVersion())
	assert.Equal(t, "ep.txt", idx.Origin())
	assert.Equal(t, 2, idx.Dimensions())
	assert.NoError(t, idx.Close(context.Background()))
}
