// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewClient 创建 Elasticsearch 客户端，Addresses 支持逗号分隔的多个地址。
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	var addrs []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}
	return client, nil
}

// ChunkMapping 返回分块索引的 mapping，向量使用 cosine 相似度。
func ChunkMapping(dims int) string {
	return fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"vector_id": { "type": "keyword" },
				"origin": { "type": "keyword" },
				"seq": { "type": "integer" },
				"start": { "type": "integer" },
				"end": { "type": "integer" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" }
			}
		}
	}`, dims)
}

// CreateIndex 使用给定 mapping 创建索引，索引已存在时返回错误。
func CreateIndex(ctx context.Context, client *elasticsearch.Client, indexName, mapping string) error {
	res, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("[ES] 创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("[ES] 创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误: " + res.Status())
	}
	log.Infof("[ES] 索引 '%s' 创建成功", indexName)
	return nil
}

// Refresh 刷新索引，使刚写入的文档可被检索。
func Refresh(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Refresh(
		client.Indices.Refresh.WithContext(ctx),
		client.Indices.Refresh.WithIndex(indexName),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("刷新索引 '%s' 失败: %s", indexName, res.Status())
	}
	return nil
}

// DeleteIndex 删除索引，索引不存在视为成功。
func DeleteIndex(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Delete(
		[]string{indexName},
		client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("删除索引 '%s' 失败: %s, body: %s", indexName, res.Status(), string(body))
	}
	log.Infof("[ES] 索引 '%s' 已删除", indexName)
	return nil
}
