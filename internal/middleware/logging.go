// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"podcast-rag-go/pkg/log"
)

// maxLoggedBody 是日志中保留的请求体与响应体的最大字节数。
const maxLoggedBody = 2048

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
// 文件上传与 WebSocket 请求不记录请求体，也不替换 ResponseWriter。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		startTime := time.Now()

		skipBody := strings.HasPrefix(c.ContentType(), "multipart/") || c.IsWebsocket()

		// 读取并重新缓存请求体
		var requestBody []byte
		if !skipBody && c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		var blw *bodyLogWriter
		if !c.IsWebsocket() {
			blw = &bodyLogWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
			c.Writer = blw
		}

		// 处理请求
		c.Next()

		responseBody := ""
		if blw != nil {
			responseBody = blw.body.String()
		}
		if len(requestBody) > maxLoggedBody {
			requestBody = requestBody[:maxLoggedBody]
		}

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"sessionID", c.GetString(SessionIDKey),
			"requestBody", string(requestBody),
			"responseBody", responseBody,
		)
	}
}
