// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"

	"podcast-rag-go/internal/conversation"
	"podcast-rag-go/internal/model"
	"podcast-rag-go/internal/prompt"
	"podcast-rag-go/internal/ragerr"
	"podcast-rag-go/internal/retriever"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/pkg/llm"
	"podcast-rag-go/pkg/log"
)

var (
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrEmptyAnswer   = errors.New("model returned an empty answer")
)

// AskResult 是一次问答的结果。
type AskResult struct {
	TurnIndex int            `json:"turn"`
	Answer    string         `json:"answer"`
	Sources   []model.Source `json:"sources"`
	// Grounded 为 false 表示会话尚未加载文档，回答是固定提示语。
	Grounded bool `json:"grounded"`
}

// ChatService 定义了问答操作的接口。
type ChatService interface {
	// Ask 回答问题并写入对话记录。w 非空时以流式方式转发模型输出。
	Ask(ctx context.Context, sess *session.Session, question string, w llm.ChunkWriter) (*AskResult, error)
}

type chatService struct {
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	llmClient llm.Client
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(r *retriever.Retriever, a *prompt.Assembler, llmClient llm.Client) ChatService {
	return &chatService{retriever: r, assembler: a, llmClient: llmClient}
}

// Ask 协调检索、提示词组装与生成。
// 检索或生成失败时不写入任何消息，错误原样返回给调用方。
func (s *chatService) Ask(ctx context.Context, sess *session.Session, question string, w llm.ChunkWriter) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ragerr.InvalidInput("ask", ErrEmptyQuestion)
	}

	var result *AskResult
	err := sess.Exclusive(func() error {
		idx := sess.Index()
		if idx == nil {
			log.Infof("[ChatService] 会话 %s 尚未上传文档, 返回固定提示", sess.ID)
			turn := sess.AppendExchange(question, conversation.Fallback, nil)
			result = &AskResult{TurnIndex: turn, Answer: conversation.Fallback}
			return nil
		}

		// 1. 检索上下文
		results, err := s.retriever.Retrieve(ctx, question, idx)
		if err != nil {
			return err
		}

		// 2. 组装提示词并调用模型
		p := s.assembler.Build(question, results)
		var answer string
		if w != nil {
			answer, err = s.llmClient.Stream(ctx, p, w)
		} else {
			answer, err = s.llmClient.Generate(ctx, p)
		}
		if err != nil {
			log.Errorf("[ChatService] 调用模型失败: %v", err)
			return ragerr.Generation("generate", err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return ragerr.Generation("generate", ErrEmptyAnswer)
		}

		// 3. 一问一答同时写入对话；模型声明未找到信息时不引用来源
		var sources []model.Source
		if !isNotFound(answer, s.assembler.NotFoundText()) {
			sources = model.SourcesFromResults(results)
		}
		turn := sess.AppendExchange(question, answer, sources)
		result = &AskResult{TurnIndex: turn, Answer: answer, Sources: sources, Grounded: true}
		log.Infof("[ChatService] 回答完成, session=%s, turn=%d, 来源 %d 条", sess.ID, turn, len(sources))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// isNotFound 判断回答是否就是固定的未找到句子，忽略结尾标点。
func isNotFound(answer, notFound string) bool {
	return strings.TrimRight(answer, ".!") == strings.TrimRight(notFound, ".!")
}
