package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/pkg/log"
)

// Ingester 处理上传的文档，由 pipeline.Processor 实现。
type Ingester interface {
	Ingest(ctx context.Context, sess *session.Session, fileName string, r io.Reader) (model.IngestReport, error)
}

// DocumentHandler 负责处理文档上传请求。
type DocumentHandler struct {
	ingester      Ingester
	maxUploadSize int64
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例，maxUploadSize <= 0 表示不限制。
func NewDocumentHandler(ingester Ingester, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{ingester: ingester, maxUploadSize: maxUploadSize}
}

// Upload 处理 multipart 表单中的 file 字段，成功后替换会话当前的文档。
func (h *DocumentHandler) Upload(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if h.maxUploadSize > 0 {
		// 为 multipart 边界预留少量空间
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, ragerr.InvalidInput("upload", fmt.Errorf("missing file field: %w", err)))
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		respondError(c, ragerr.InvalidInput("upload", fmt.Errorf("file exceeds %d bytes", h.maxUploadSize)))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, ragerr.InvalidInput("upload", err))
		return
	}
	defer file.Close()

	report, err := h.ingester.Ingest(c.Request.Context(), sess, fileHeader.Filename, file)
	if err != nil {
		var rerr *ragerr.Error
		if errors.As(err, &rerr) {
			log.Warnf("[DocumentHandler] 文件处理失败, session=%s, 阶段=%s: %v", sess.ID, rerr.Op, rerr.Err)
		}
		respondError(c, err)
		return
	}

	respondOK(c, sess.Status(), gin.H{"report": report, "session": sess.Info()})
}
