// Package log 是全局日志门面，封装 zap 的 SugaredLogger。
//
// 业务代码统一通过包级函数记录日志，消息以 "[组件名]" 开头，
// 例如 "[Processor] 开始处理文件"。Init 之前的调用落到 Nop logger，不会输出也不会 panic。
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ServiceName 作为固定字段写入每条日志，便于在聚合日志中筛选。
	ServiceName = "podcast-rag"
	// FileName 是指定输出目录时写入的日志文件名。
	FileName = "app.log"
)

var sugar = zap.NewNop().Sugar()

// Init 根据级别、编码格式和输出目录初始化全局 logger。
//
// level 无法解析时回退到 info；format 为 "console" 时使用带颜色的开发配置，
// 其他取值一律输出 JSON。outputPath 非空时日志同时写入 stdout 与 outputPath/app.log。
func Init(level, format, outputPath string) error {
	var zapConfig zap.Config

	// 根据配置设置日志级别
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	if format == "console" {
		// 开发环境配置
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		// 生产环境配置
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.Level = logLevel
	zapConfig.InitialFields = map[string]interface{}{"service": ServiceName}
	zapConfig.OutputPaths = []string{"stdout"}
	if outputPath != "" {
		if err := os.MkdirAll(outputPath, os.ModePerm); err != nil {
			return fmt.Errorf("create log dir %s: %w", outputPath, err)
		}
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, filepath.Join(outputPath, FileName))
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	sugar = logger.Sugar()
	return nil
}

// SetLogger 替换底层 logger，传入 nil 时恢复为 Nop。
// 测试中可注入 zaptest/observer 来断言日志内容。
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
}

// Info 记录一条 info 级别的日志
func Info(msg string) {
	sugar.Info(msg)
}

// Infof 使用格式化字符串记录一条 info 级别的日志
func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

// Infow 使用键值对记录一条 info 级别的结构化日志。
// 请求日志等需要按字段检索的场景优先使用它。
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

// Debugf 记录调试细节，例如分批向量化的进度和阈值过滤结果。
func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

// Warnf 使用格式化字符串记录一条 warn 级别的日志，用于可恢复的失败。
func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

// Error 记录一条 error 级别的日志，err 以 "error" 字段附带
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

// Errorf 使用格式化字符串记录一条 error 级别的日志
func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Fatal 记录一条 fatal 级别的日志并附带 error 信息，然后以状态码 1 退出程序。
// 只应在启动阶段使用。
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

// Fatalf 与 Fatal 相同，但使用格式化字符串
func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 将缓冲区中的日志刷新到底层 Writer，程序退出前调用。
func Sync() {
	_ = sugar.Sync()
}
