package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"podcast-rag-go/internal/config"
	"podcast-rag-go/internal/model"
)

func results(texts ...string) []model.SearchResult {
	out := make([]model.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = model.SearchResult{Chunk: model.Chunk{Seq: i, Text: t}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestBuildDefaultTemplate(t *testing.T) {
	a := New(config.PromptConfig{})
	p := a.Build("Apa topik episode 2?", results("Episode 2: climate change.", "Episode 1: AI safety."))

	assert.True(t, strings.HasPrefix(p, "Anda adalah asisten AI yang ahli dalam menganalisis konten podcast."))
	assert.Contains(t, p, `katakan "Maaf, informasi tersebut tidak ditemukan dalam transcript"`)
	assert.Contains(t, p, "TRANSCRIPT PODCAST:\nEpisode 2: climate change.\n\nEpisode 1: AI safety.\n")
	assert.Contains(t, p, "PERTANYAAN: Apa topik episode 2?")
	assert.True(t, strings.HasSuffix(p, "JAWABAN (singkat dan langsung ke intinya):"))
}

func TestBuildPreservesResultOrder(t *testing.T) {
	a := New(config.PromptConfig{Delimiter: "\n---\n"})
	assert.Equal(t, "b\n---\na\n---\nc", a.Context(results("b", "a", "c")))
}

func TestBuildNoResults(t *testing.T) {
	a := New(config.PromptConfig{})
	p := a.Build("Siapa tamunya?", nil)
	assert.Contains(t, p, "TRANSCRIPT PODCAST:\n"+DefaultNoResultText+"\n")
}

func TestBuildQuestionVerbatim(t *testing.T) {
	a := New(config.PromptConfig{})
	q := "  {context} weird\nquestion?  "
	p := a.Build(q, results("x"))
	assert.Contains(t, p, questionLabel+q+"\n\n")
}

func TestBuildCustomConfig(t *testing.T) {
	a := New(config.PromptConfig{
		Rules:        "Only use the reference.",
		RefStart:     "<<REF>>",
		RefEnd:       "<<END>>",
		NoResultText: "(none)",
		NotFoundText: "Not found.",
	})
	p := a.Build("q", nil)
	assert.True(t, strings.HasPrefix(p, "Only use the reference.\n\n<<REF>>\n(none)\n<<END>>\n"))
	assert.Equal(t, "Not found.", a.NotFoundText())
}

func TestDefaultRulesUsesNotFoundText(t *testing.T) {
	a := New(config.PromptConfig{NotFoundText: "Tidak ada."})
	assert.Contains(t, a.Build("q", nil), `katakan "Tidak ada."`)
}
