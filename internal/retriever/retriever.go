// Package retriever 负责将问题向量化并从当前索引中取回最相关的分块。
package retriever

import (
	"context"
	"errors"
	"fmt"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/vectorindex"
	"podcast-rag-go/pkg/embedding"
	"podcast-rag-go/pkg/log"
)

// DefaultTopK 是每次检索返回的分块数量。
const DefaultTopK = 3

// ErrModelMismatch 表示索引与当前 embedding 模型不在同一向量空间。
var ErrModelMismatch = errors.New("index was built with a different embedding model, re-upload the document")

// Retriever 执行 top-k 余弦检索，可选按最低分数过滤。
type Retriever struct {
	embedder  embedding.Client
	topK      int
	minScore  float64
	threshold bool
}

// New 创建检索器，TopK <= 0 时使用默认值 3。
func New(embedder embedding.Client, cfg config.RetrieverConfig) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder:  embedder,
		topK:      topK,
		minScore:  cfg.MinScore,
		threshold: cfg.ThresholdEnabled,
	}
}

// Retrieve 返回至多 topK 个结果。索引为空（nil）时返回 ragerr.ErrNotReady 且不调用 embedding。
// 任何失败都返回检索错误，不会返回部分上下文。
func (r *Retriever) Retrieve(ctx context.Context, question string, idx vectorindex.Index) ([]model.SearchResult, error) {
	if idx == nil {
		return nil, ragerr.ErrNotReady
	}
	if idx.ModelVersion() != "" && idx.ModelVersion() != r.embedder.ModelName() {
		log.Warnf("[Retriever] 索引模型 %s 与当前模型 %s 不一致", idx.ModelVersion(), r.embedder.ModelName())
		return nil, ragerr.Retrieval("check_model", fmt.Errorf("%w: index=%s, embedder=%s", ErrModelMismatch, idx.ModelVersion(), r.embedder.ModelName()))
	}

	vector, err := r.embedder.CreateEmbedding(ctx, question)
	if err != nil {
		log.Errorf("[Retriever] 向量化查询失败: %v", err)
		return nil, ragerr.Retrieval("embed_query", err)
	}

	results, err := idx.Query(ctx, vector, r.topK)
	if err != nil {
		log.Errorf("[Retriever] 向量检索失败: %v", err)
		return nil, ragerr.Retrieval("query_index", err)
	}

	if r.threshold {
		kept := results[:0]
		for _, res := range results {
			if res.Score >= r.minScore {
				kept = append(kept, res)
			}
		}
		log.Debugf("[Retriever] 阈值 %.3f 过滤后保留 %d/%d 条", r.minScore, len(kept), len(results))
		results = kept
	}
	log.Infof("[Retriever] 检索完成, 命中 %d 条", len(results))
	return results, nil
}
