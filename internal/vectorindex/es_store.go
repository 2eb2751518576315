package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"podcast-rag-go/internal/model"
	"podcast-rag-go/pkg/es"
	"podcast-rag-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/google/uuid"
)

// ESStore 每次构建都创建一个独立的物理索引 <prefix>-<uuid>，替换时删除旧索引。
type ESStore struct {
	client *elasticsearch.Client
	prefix string
}

func NewESStore(client *elasticsearch.Client, prefix string) *ESStore {
	if prefix == "" {
		prefix = "podcast_chunks"
	}
	return &ESStore{client: client, prefix: prefix}
}

func (s *ESStore) Build(ctx context.Context, in BuildInput) (Index, error) {
	dims, err := validate(in)
	if err != nil {
		return nil, err
	}
	name := s.prefix + "-" + uuid.New().String()
	log.Infof("[ESStore] 开始构建索引 %s, 分块数: %d, 维度: %d", name, len(in.Chunks), dims)

	if err := es.CreateIndex(ctx, s.client, name, es.ChunkMapping(dims)); err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	// 任一步骤失败都删除新索引，旧索引保持不变
	if err := s.bulkIndex(ctx, name, in); err != nil {
		s.drop(name)
		return nil, err
	}
	if err := es.Refresh(ctx, s.client, name); err != nil {
		s.drop(name)
		return nil, fmt.Errorf("refresh index: %w", err)
	}
	log.Infof("[ESStore] 索引 %s 构建完成", name)
	return &esIndex{
		client: s.client,
		name:   name,
		origin: in.Origin,
		model:  in.ModelVersion,
		dims:   dims,
		count:  len(in.Chunks),
	}, nil
}

func (s *ESStore) bulkIndex(ctx context.Context, name string, in BuildInput) error {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     s.client,
		Index:      name,
		NumWorkers: 2,
	})
	if err != nil {
		return fmt.Errorf("create bulk indexer: %w", err)
	}

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)
	for i, c := range in.Chunks {
		doc := model.EsChunk{
			VectorID:     in.Origin + "_" + strconv.Itoa(c.Seq),
			Origin:       c.Origin,
			Seq:          c.Seq,
			Start:        c.Start,
			End:          c.End,
			TextContent:  c.Text,
			Vector:       in.Vectors[i],
			ModelVersion: in.ModelVersion,
		}
		body, err := json.Marshal(doc)
		if err != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("marshal chunk %d: %w", c.Seq, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.Itoa(c.Seq),
			Body:       bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil {
					err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("add chunk %d: %w", c.Seq, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flush bulk indexer: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if failed > 0 {
		return fmt.Errorf("bulk index: %d of %d chunks failed: %w", failed, len(in.Chunks), firstErr)
	}
	return nil
}

// drop 使用独立上下文清理，原请求可能已被取消。
func (s *ESStore) drop(name string) {
	if err := es.DeleteIndex(context.Background(), s.client, name); err != nil {
		log.Warnf("[ESStore] 清理索引 %s 失败: %v", name, err)
	}
}

type esIndex struct {
	client *elasticsearch.Client
	name   string
	origin string
	model  string
	dims   int
	count  int
}

// knnQuery 构建 kNN 查询，结果中不返回向量字段。
func knnQuery(vector []float32, k int) map[string]interface{} {
	return map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": min(max(k*10, 100), 10000),
		},
		"_source": map[string]interface{}{
			"excludes": []string{"vector"},
		},
		"size": k,
	}
}

// cosineFromScore 将 ES cosine 相似度得分 (1+cos)/2 还原为余弦值。
func cosineFromScore(score float64) float64 {
	return clamp(2*score - 1)
}

func (x *esIndex) Query(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error) {
	if len(vector) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimensionMismatch, len(vector), x.dims)
	}
	if normalize(vector) == nil {
		return nil, ErrZeroVector
	}
	if k <= 0 || x.count == 0 {
		return []model.SearchResult{}, nil
	}
	k = min(k, x.count)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(knnQuery(vector, k)); err != nil {
		return nil, fmt.Errorf("encode es query: %w", err)
	}
	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.name),
		x.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Errorf("[ESStore] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(body))
		return nil, errors.New("elasticsearch returned an error: " + res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunk `json:"_source"`
				Score  float64       `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	results := make([]model.SearchResult, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		results = append(results, model.SearchResult{Chunk: h.Source.ToChunk(), Score: cosineFromScore(h.Score)})
	}
	return rank(results, k), nil
}

func (x *esIndex) Len() int { return x.count }

func (x *esIndex) Dimensions() int { return x.dims }

func (x *esIndex) Origin() string { return x.origin }

func (x *esIndex) ModelVersion() string { return x.model }

func (x *esIndex) Close(ctx context.Context) error {
	return es.DeleteIndex(ctx, x.client, x.name)
}
