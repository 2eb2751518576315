// Package database 负责外部存储连接的初始化。
package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"
)

// NewRedis 创建 Redis 客户端并测试连接，用作共享的向量缓存。
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
