package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerIsSafe(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Infof("[Test] %d", 1)
		Error("boom", errors.New("x"))
		Sync()
	})
}

func TestSetLoggerCapturesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Infow("ingest done", "chunks", 3)
	Warnf("[Retriever] %s", "empty")
	Error("failed", errors.New("boom"))

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "ingest done", entries[0].Message)
		assert.Equal(t, int64(3), entries[0].ContextMap()["chunks"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "boom", entries[2].ContextMap()["error"])
	}
}

func TestInitWritesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init("debug", "json", dir))
	defer SetLogger(nil)

	Infof("[Test] %s", "hello")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Test] hello")
	assert.Contains(t, string(data), `"service":"`+ServiceName+`"`)
}

func TestInitRejectsUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := Init("info", "json", file)
	assert.Error(t, err)
}
