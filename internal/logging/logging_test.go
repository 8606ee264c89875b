package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("chatty"))
}

func TestConsole_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Console(&buf, "warn", true)
	l.Info("hidden")
	l.Warn("shown", "project_id", "p1")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "project_id=p1")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	JSON(&buf, "info").Info("request", "status", 200)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.EqualValues(t, 200, rec["status"])
}
