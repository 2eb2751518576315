package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 3, cfg.Retriever.TopK)
	assert.False(t, cfg.Retriever.ThresholdEnabled)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, "gemini-embedding-001", cfg.Embedding.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "\n\n", cfg.Prompt.Delimiter)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
chunker:
  size: 500
  overlap: 50
retriever:
  top_k: 5
  min_score: 0.4
  score_threshold_enabled: true
session:
  ttl: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("GEMINI_KEY", "secret-key")
	t.Setenv("PODCAST_RAG_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 5, cfg.Retriever.TopK)
	assert.InDelta(t, 0.4, cfg.Retriever.MinScore, 1e-9)
	assert.True(t, cfg.Retriever.ThresholdEnabled)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "secret-key", cfg.Embedding.APIKey)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidChunker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker:\n  size: 100\n  overlap: 100\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunker.overlap")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateBackend(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Index.Backend = "chroma"
	assert.Error(t, cfg.Validate())
}
