package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWritersFansOut(t *testing.T) {
	var console, file bytes.Buffer
	l := NewWithWriters(&console, &file, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("note saved", "note_id", "n1")

	assert.Contains(t, console.String(), "note saved")
	assert.NotContains(t, console.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(file.Bytes()), &rec))
	assert.Equal(t, "note saved", rec["msg"])
	assert.Equal(t, "n1", rec["note_id"])
}

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))

	LoggerFromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	buf.Reset()
	LoggerFromContext(context.Background()).Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestSetupWritesFile(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	path := filepath.Join(t.TempDir(), "voicenote.log")
	l, cleanup := Setup(Options{Level: slog.LevelInfo, File: path, Text: true})
	l.Info("from setup")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "from setup"))
	assert.Same(t, l, Logger())
}
