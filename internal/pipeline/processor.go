// Package pipeline 定义了文档摄取的核心流程：加载、分块、向量化、建索引、替换。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"podcast-rag-go/internal/chunker"
	"podcast-rag-go/internal/loader"
	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/internal/vectorindex"
	"podcast-rag-go/pkg/embedding"
	"podcast-rag-go/pkg/log"
)

// DefaultBatchSize 是每次向量化请求包含的分块数。
const DefaultBatchSize = 32

var (
	ErrEmptyDocument = errors.New("document contains no text")
	ErrNoChunks      = errors.New("chunker produced no chunks")
)

// Processor 封装了摄取所需的全部依赖。
type Processor struct {
	loader    loader.Loader
	splitter  *chunker.Splitter
	embedder  embedding.Client
	store     vectorindex.Store
	batchSize int
}

// NewProcessor 创建一个新的 Processor 实例，batchSize <= 0 时使用默认值。
func NewProcessor(l loader.Loader, splitter *chunker.Splitter, embedder embedding.Client, store vectorindex.Store, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{
		loader:    l,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

// Ingest 在会话的操作锁内处理上传文件，成功后原子替换会话的索引。
// 任一阶段失败都返回带阶段名的摄取错误，会话的旧索引与对话保持不变。
func (p *Processor) Ingest(ctx context.Context, sess *session.Session, fileName string, r io.Reader) (model.IngestReport, error) {
	var report model.IngestReport
	err := sess.Exclusive(func() error {
		var err error
		report, err = p.process(ctx, sess, fileName, r)
		return err
	})
	return report, err
}

func (p *Processor) process(ctx context.Context, sess *session.Session, fileName string, r io.Reader) (model.IngestReport, error) {
	started := time.Now()
	log.Infof("[Processor] 开始处理文件, session=%s, FileName: %s", sess.ID, fileName)

	// 1. 加载文档
	doc, err := p.loader.Load(ctx, fileName, r)
	if err != nil {
		log.Errorf("[Processor] 加载文件失败, FileName: %s, Error: %v", fileName, err)
		return model.IngestReport{}, ragerr.Ingestion("load", err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", fileName)
		return model.IngestReport{}, ragerr.Ingestion("empty", ErrEmptyDocument)
	}
	runes := utf8.RuneCountInString(doc.Text)
	log.Infof("[Processor] 步骤1: 文本加载成功, 内容长度: %d 字符", runes)

	// 2. 文本切块
	chunks := p.splitter.Split(doc)
	if len(chunks) == 0 {
		log.Warnf("[Processor] 未生成任何文本分块, 处理中止, FileName: %s", fileName)
		return model.IngestReport{}, ragerr.Ingestion("chunk", ErrNoChunks)
	}
	log.Infof("[Processor] 步骤2: 文本分块完成, chunkSize: %d, chunkOverlap: %d, 共 %d 个分块",
		p.splitter.Size(), p.splitter.Overlap(), len(chunks))

	// 3. 分批向量化
	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		return model.IngestReport{}, ragerr.Ingestion("embed", err)
	}

	// 4. 构建新索引
	modelName := p.embedder.ModelName()
	idx, err := p.store.Build(ctx, vectorindex.BuildInput{
		Origin:       doc.Origin,
		ModelVersion: modelName,
		Chunks:       chunks,
		Vectors:      vectors,
	})
	if err != nil {
		log.Errorf("[Processor] 构建索引失败, Error: %v", err)
		return model.IngestReport{}, ragerr.Ingestion("index", err)
	}

	// 5. 替换并释放旧索引
	old, err := sess.Swap(ctx, idx, doc.Origin)
	if err != nil {
		log.Warnf("[Processor] 会话 %s 已失效, 丢弃新索引", sess.ID)
		return model.IngestReport{}, ragerr.Ingestion("index", err)
	}
	if old != nil {
		if err := old.Close(ctx); err != nil {
			log.Warnf("[Processor] 释放旧索引失败: %v", err)
		}
	}

	report := model.IngestReport{
		Origin:     doc.Origin,
		Runes:      runes,
		Chunks:     len(chunks),
		Dimensions: idx.Dimensions(),
		Model:      modelName,
		ElapsedMS:  time.Since(started).Milliseconds(),
	}
	log.Infof("[Processor] 文件处理成功完成, FileName: %s, 分块: %d, 维度: %d, 耗时: %dms",
		report.Origin, report.Chunks, report.Dimensions, report.ElapsedMS)
	return report, nil
}

func (p *Processor) embed(ctx context.Context, chunks []model.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		log.Debugf("[Processor] 向量化分块 %d-%d/%d", start+1, end, len(chunks))
		batch, err := p.embedder.CreateEmbeddings(ctx, texts)
		if err != nil {
			log.Errorf("[Processor] 分块 %d-%d 向量化失败, Error: %v", start+1, end, err)
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts", start, end-1, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	log.Infof("[Processor] 步骤3: 向量化完成, 共 %d 个向量", len(vectors))
	return vectors, nil
}
