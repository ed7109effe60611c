package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "app", "WARNING")

	l.Info("hidden %d", 1)
	l.Debug("hidden")
	l.Warning("shown %s", "warn")
	l.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[app] WARNING: shown warn")
	assert.Contains(t, out, "[app] ERROR: shown error")
}

func TestNamedSharesOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf, "app", "ERROR")
	child := root.Named("Publisher")

	child.Info("dropped")
	child.Error("upload failed")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "[Publisher] ERROR: upload failed")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarning,
		"Error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	l, err := NewFileLogger(path, "app", "INFO")
	require.NoError(t, err)
	l.Info("written")
	require.NoError(t, l.Close())
	assert.FileExists(t, path)
}
