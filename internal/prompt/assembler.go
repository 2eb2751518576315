// Package prompt 将检索到的分块与问题组装为生成模型的单轮提示词。
package prompt

import (
	"strings"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/internal/model"
)

const (
	DefaultNotFoundText = "Maaf, informasi tersebut tidak ditemukan dalam transcript"
	DefaultRefStart     = "TRANSCRIPT PODCAST:"
	DefaultDelimiter    = "\n\n"
	DefaultNoResultText = "(Tidak ada bagian transcript yang relevan dengan pertanyaan ini.)"

	questionLabel = "PERTANYAAN: "
	answerCue     = "JAWABAN (singkat dan langsung ke intinya):"
)

// DefaultRules 返回内置的播客分析指令，notFound 为信息缺失时要求模型输出的固定句子。
func DefaultRules(notFound string) string {
	return "Anda adalah asisten AI yang ahli dalam menganalisis konten podcast.\n\n" +
		"TUGAS:\n" +
		"Jawab pertanyaan berdasarkan transcript podcast yang diberikan.\n\n" +
		"ATURAN:\n" +
		"1. Gunakan HANYA informasi dari transcript\n" +
		"2. Jika informasi tidak ada, katakan \"" + notFound + "\"\n" +
		"3. JANGAN menambahkan informasi di luar transcript\n" +
		"4. JANGAN mengulang pertanyaan dalam jawaban\n" +
		"5. Jawab dengan bahasa Indonesia yang natural dan mudah dipahami\n" +
		"6. JANGAN menambahkan opini pribadi"
}

// Assembler 按固定模板渲染提示词。
type Assembler struct {
	rules     string
	refStart  string
	refEnd    string
	delimiter string
	noResult  string
	notFound  string
}

// New 根据配置创建组装器，空字段使用内置默认值。
func New(cfg config.PromptConfig) *Assembler {
	a := &Assembler{
		rules:     cfg.Rules,
		refStart:  cfg.RefStart,
		refEnd:    cfg.RefEnd,
		delimiter: cfg.Delimiter,
		noResult:  cfg.NoResultText,
		notFound:  cfg.NotFoundText,
	}
	if a.notFound == "" {
		a.notFound = DefaultNotFoundText
	}
	if a.rules == "" {
		a.rules = DefaultRules(a.notFound)
	}
	if a.refStart == "" {
		a.refStart = DefaultRefStart
	}
	if a.delimiter == "" {
		a.delimiter = DefaultDelimiter
	}
	if a.noResult == "" {
		a.noResult = DefaultNoResultText
	}
	return a
}

// NotFoundText 是模型在上下文不足时应给出的回答。
func (a *Assembler) NotFoundText() string { return a.notFound }

// Context 按检索顺序拼接分块文本。
func (a *Assembler) Context(results []model.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
	}
	return strings.Join(texts, a.delimiter)
}

// Build 渲染完整提示词。问题原样插入；没有检索结果时用固定占位文本代替上下文。
func (a *Assembler) Build(question string, results []model.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(a.rules)
	sb.WriteString("\n\n")
	sb.WriteString(a.refStart)
	sb.WriteString("\n")
	if len(results) > 0 {
		sb.WriteString(a.Context(results))
	} else {
		sb.WriteString(a.noResult)
	}
	sb.WriteString("\n")
	if a.refEnd != "" {
		sb.WriteString(a.refEnd)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(questionLabel)
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(answerCue)
	return sb.String()
}
