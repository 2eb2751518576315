// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	if err := EnsureBucket(ctx, client, cfg.BucketName); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureBucket 检查存储桶是否存在，不存在则创建。
func EnsureBucket(ctx context.Context, client *minio.Client, bucketName string) error {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if exists {
		log.Infof("存储桶 '%s' 已存在", bucketName)
		return nil
	}
	log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
	if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
	}
	log.Infof("存储桶 '%s' 创建成功", bucketName)
	return nil
}
