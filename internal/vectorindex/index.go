// Package vectorindex 提供按余弦相似度检索分块的向量索引。
// 索引在构建后不可变；替换文档时构建新索引并整体替换旧索引。
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"podcast-rag-go/internal/model"
)

var (
	ErrEmptyBuild        = errors.New("vectorindex: no chunks to index")
	ErrDimensionMismatch = errors.New("vectorindex: vector dimension mismatch")
	ErrZeroVector        = errors.New("vectorindex: zero-length vector")
)

// Index 是一个已构建完成的只读索引。
type Index interface {
	// Query 返回至多 k 个结果，按相似度降序，分数相同按分块序号升序。
	Query(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error)
	Len() int
	Dimensions() int
	Origin() string
	// ModelVersion 是构建索引时所用的 embedding 模型标识。
	ModelVersion() string
	// Close 释放后端资源，替换或重置会话后调用。
	Close(ctx context.Context) error
}

// BuildInput 描述一次索引构建。Chunks 与 Vectors 一一对应。
type BuildInput struct {
	Origin       string
	ModelVersion string
	Chunks       []model.Chunk
	Vectors      [][]float32
}

// Store 负责构建新索引。构建失败时不会产生任何可见的部分索引。
type Store interface {
	Build(ctx context.Context, in BuildInput) (Index, error)
}

// validate 检查构建输入并返回向量维度。
func validate(in BuildInput) (int, error) {
	if len(in.Chunks) == 0 {
		return 0, ErrEmptyBuild
	}
	if len(in.Chunks) != len(in.Vectors) {
		return 0, fmt.Errorf("vectorindex: %d chunks but %d vectors", len(in.Chunks), len(in.Vectors))
	}
	dims := len(in.Vectors[0])
	if dims == 0 {
		return 0, ErrZeroVector
	}
	for i, v := range in.Vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(v), dims)
		}
		if norm(v) == 0 {
			return 0, fmt.Errorf("%w: vector %d", ErrZeroVector, i)
		}
	}
	return dims, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// normalize 返回单位化后的副本，零向量返回 nil。
func normalize(v []float32) []float32 {
	n := norm(v)
	if n == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// rank 按分数降序、序号升序排序并截取前 k 个。
func rank(results []model.SearchResult, k int) []model.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
	if k < len(results) {
		results = results[:k]
	}
	return results
}

func clamp(score float64) float64 {
	return math.Max(-1, math.Min(1, score))
}
