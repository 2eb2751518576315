package loader

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"podcast-rag-go/internal/model"
	"podcast-rag-go/pkg/log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// StagingLoader 先把上传文件写入 MinIO 暂存区，再从对象流中解析，解析完成后删除对象。
type StagingLoader struct {
	client *minio.Client
	bucket string
	next   Loader
}

func NewStagingLoader(client *minio.Client, bucket string, next Loader) *StagingLoader {
	return &StagingLoader{client: client, bucket: bucket, next: next}
}

// objectName 生成唯一的暂存对象名，避免并发上传同名文件互相覆盖。
func objectName(fileName string) string {
	return path.Join("staging", uuid.New().String(), filepath.Base(fileName))
}

func (s *StagingLoader) Load(ctx context.Context, fileName string, r io.Reader) (model.Document, error) {
	name := objectName(fileName)
	info, err := s.client.PutObject(ctx, s.bucket, name, r, -1, minio.PutObjectOptions{
		ContentType: detectContentType(fileName),
	})
	if err != nil {
		return model.Document{}, fmt.Errorf("stage upload to minio: %w", err)
	}
	log.Infof("[StagingLoader] 文件已暂存, Bucket: %s, Object: %s, 大小: %d 字节", s.bucket, name, info.Size)
	defer func() {
		if err := s.client.RemoveObject(context.Background(), s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
			log.Warnf("[StagingLoader] 删除暂存对象失败, Object: %s, error: %v", name, err)
		}
	}()

	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return model.Document{}, fmt.Errorf("read staged upload: %w", err)
	}
	defer object.Close()
	return s.next.Load(ctx, fileName, object)
}

func detectContentType(fileName string) string {
	if strings.ToLower(filepath.Ext(fileName)) == ".pdf" {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}
