package main

import (
	"context"
	"fmt"

	"podcast-rag-go/internal/chunker"
	"podcast-rag-go/internal/config"
	"podcast-rag-go/internal/loader"
	"podcast-rag-go/internal/pipeline"
	"podcast-rag-go/internal/prompt"
	"podcast-rag-go/internal/retriever"
	"podcast-rag-go/internal/service"
	"podcast-rag-go/internal/vectorindex"
	"podcast-rag-go/pkg/database"
	"podcast-rag-go/pkg/embedding"
	"podcast-rag-go/pkg/es"
	"podcast-rag-go/pkg/llm"
	"podcast-rag-go/pkg/log"
	"podcast-rag-go/pkg/storage"
	"podcast-rag-go/pkg/tika"
)

// app 汇总了服务与命令行共用的组件。
type app struct {
	processor    *pipeline.Processor
	chat         service.ChatService
	conversation service.ConversationService
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp 按配置初始化外部客户端并完成依赖注入。
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	// 1. Embedding 客户端与缓存
	embedder, err := embedding.NewClient(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	embedder = embedding.WrapLRU(embedder, cfg.Embedding.Cache.LRUSize, cfg.Embedding.Cache.TTL)
	if cfg.Embedding.Cache.Redis && cfg.Redis.Addr != "" {
		rdb, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// 共享缓存不可用时仅使用进程内缓存
			log.Warnf("Redis 不可用, 跳过共享向量缓存: %v", err)
		} else {
			embedder = embedding.WrapRedis(embedder, rdb, cfg.Embedding.Cache.TTL)
			a.closers = append(a.closers, func() { _ = rdb.Close() })
		}
	}

	// 2. 生成模型
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	// 3. 文档加载：Tika 解析 PDF，可选 MinIO 暂存
	var docLoader loader.Loader = loader.NewFileLoader(tika.NewClient(cfg.Tika), cfg.Server.MaxUploadSize)
	if cfg.MinIO.Enabled {
		mc, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("init minio: %w", err)
		}
		if err := storage.EnsureBucket(ctx, mc, cfg.MinIO.BucketName); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		docLoader = loader.NewStagingLoader(mc, cfg.MinIO.BucketName, docLoader)
	}

	// 4. 向量索引后端
	var store vectorindex.Store
	switch cfg.Index.Backend {
	case "elasticsearch":
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		store = vectorindex.NewESStore(esClient, cfg.Elasticsearch.IndexName)
	default:
		store = vectorindex.NewMemoryStore()
	}
	log.Infof("向量索引后端: %s", cfg.Index.Backend)

	splitter, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	a.processor = pipeline.NewProcessor(docLoader, splitter, embedder, store, cfg.Embedding.BatchSize)
	a.chat = service.NewChatService(retriever.New(embedder, cfg.Retriever), prompt.New(cfg.Prompt), llmClient)
	a.conversation = service.NewConversationService()
	return a, nil
}
