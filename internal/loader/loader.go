// Package loader 将上传的文件解析为纯文本文档。
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"podcast-rag-go/internal/model"
	"podcast-rag-go/pkg/log"
)

// ErrUnsupportedType 表示文件类型不在支持范围内（仅支持 .txt 与 .pdf）。
var ErrUnsupportedType = errors.New("unsupported file type, only .txt and .pdf are accepted")

// Loader 读取上传文件并返回文档。
type Loader interface {
	Load(ctx context.Context, fileName string, r io.Reader) (model.Document, error)
}

// TextExtractor 从二进制文档中提取文本，由 Tika 客户端实现。
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// FileLoader 直接解码 .txt，.pdf 交给 TextExtractor。
type FileLoader struct {
	extractor TextExtractor
	maxBytes  int64
}

// NewFileLoader 创建加载器，maxBytes <= 0 表示不限制大小。
func NewFileLoader(extractor TextExtractor, maxBytes int64) *FileLoader {
	return &FileLoader{extractor: extractor, maxBytes: maxBytes}
}

// Supported 判断文件名后缀是否受支持。
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

func (l *FileLoader) Load(ctx context.Context, fileName string, r io.Reader) (model.Document, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !Supported(fileName) {
		return model.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	data, err := l.read(r)
	if err != nil {
		return model.Document{}, err
	}

	var text string
	switch ext {
	case ".txt":
		text = string(data)
	case ".pdf":
		if l.extractor == nil {
			return model.Document{}, errors.New("pdf extraction is not configured")
		}
		log.Infof("[Loader] 使用 Tika 提取 PDF 文本, 文件: %s, 大小: %d 字节", fileName, len(data))
		text, err = l.extractor.ExtractText(ctx, bytes.NewReader(data), fileName)
		if err != nil {
			return model.Document{}, fmt.Errorf("extract pdf text: %w", err)
		}
	}
	return model.Document{Origin: filepath.Base(fileName), Text: Normalize(text)}, nil
}

func (l *FileLoader) read(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("file exceeds the %d byte limit", l.maxBytes)
	}
	return data, nil
}

// Normalize 替换非法 UTF-8、去除 BOM 并统一换行符为 \n。
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
