package vectorindex

import (
	"context"
	"fmt"

	"podcast-rag-go/internal/model"
)

// MemoryStore 构建进程内的暴力检索索引。
type MemoryStore struct{}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Build 允许空输入，得到的空索引对任何查询都返回空结果。
func (s *MemoryStore) Build(ctx context.Context, in BuildInput) (Index, error) {
	if len(in.Chunks) == 0 && len(in.Vectors) == 0 {
		return &memoryIndex{origin: in.Origin, model: in.ModelVersion}, nil
	}
	dims, err := validate(in)
	if err != nil {
		return nil, err
	}
	idx := &memoryIndex{
		origin:  in.Origin,
		model:   in.ModelVersion,
		dims:    dims,
		chunks:  make([]model.Chunk, len(in.Chunks)),
		vectors: make([][]float32, len(in.Vectors)),
	}
	copy(idx.chunks, in.Chunks)
	for i, v := range in.Vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx.vectors[i] = normalize(v)
	}
	return idx, nil
}

type memoryIndex struct {
	origin  string
	model   string
	dims    int
	chunks  []model.Chunk
	vectors [][]float32
}

func (m *memoryIndex) Query(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.chunks) == 0 {
		return []model.SearchResult{}, nil
	}
	if len(vector) != m.dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimensionMismatch, len(vector), m.dims)
	}
	q := normalize(vector)
	if q == nil {
		return nil, ErrZeroVector
	}
	if k <= 0 {
		return []model.SearchResult{}, nil
	}
	results := make([]model.SearchResult, 0, len(m.chunks))
	for i, v := range m.vectors {
		results = append(results, model.SearchResult{Chunk: m.chunks[i], Score: clamp(dot(q, v))})
	}
	return rank(results, k), nil
}

func (m *memoryIndex) Len() int { return len(m.chunks) }

func (m *memoryIndex) Dimensions() int { return m.dims }

func (m *memoryIndex) Origin() string { return m.origin }

func (m *memoryIndex) ModelVersion() string { return m.model }

func (m *memoryIndex) Close(ctx context.Context) error { return nil }
