package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Info("hidden")
	l.With(String("item", "42")).Warn("queue item failed", Err(assert.AnError))
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"queue item failed"`)
	assert.Contains(t, out, `"item":"42"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewNop()
	assert.Equal(t, l, OrNop(l))
	assert.NoError(t, l.With(Int("n", 1)).Sync())
}
