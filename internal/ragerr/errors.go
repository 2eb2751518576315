// Package ragerr 定义了问答流程中各阶段的错误分类。
package ragerr

import (
	"errors"
	"fmt"
)

// Kind 表示错误所属的阶段。
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindIngestion    Kind = "ingestion"
	KindNotReady     Kind = "not_ready"
	KindRetrieval    Kind = "retrieval"
	KindGeneration   Kind = "generation"
)

// ErrNotReady 表示会话尚未加载任何文档。
var ErrNotReady = &Error{Kind: KindNotReady, Op: "retrieve", Err: errors.New("no document ingested")}

// Error 携带阶段分类、操作名和底层原因。
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New 构造一个分类错误。
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ingestion 包装摄取阶段的失败，op 为具体阶段（load/empty/chunk/embed/index）。
func Ingestion(stage string, err error) *Error {
	return New(KindIngestion, stage, err)
}

func Retrieval(op string, err error) *Error {
	return New(KindRetrieval, op, err)
}

func Generation(op string, err error) *Error {
	return New(KindGeneration, op, err)
}

func InvalidInput(op string, err error) *Error {
	return New(KindInvalidInput, op, err)
}

// KindOf 返回错误链中第一个分类错误的 Kind，未分类时返回空字符串。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is 判断错误链中是否包含指定分类的错误。
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
