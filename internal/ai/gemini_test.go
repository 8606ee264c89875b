package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, status int, calls *int32) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
				"code": status, "message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT",
			}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": "grounded reply"}}},
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 3, "totalTokenCount": 13},
		})
	}))
}

func TestGemini_Generate(t *testing.T) {
	var calls int32
	srv := geminiServer(t, http.StatusOK, &calls)

	c, err := NewGeminiClient(context.Background(), "test-key", srv.URL, 2*time.Second, RetryPolicy{Max: 1})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), PromptRequest("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "grounded reply", resp.Text())
	assert.Equal(t, 13, resp.Usage.TotalTokens)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGemini_InvalidKeyIsAuthError(t *testing.T) {
	var calls int32
	srv := geminiServer(t, http.StatusBadRequest, &calls)

	c, err := NewGeminiClient(context.Background(), "bad", srv.URL, 2*time.Second, RetryPolicy{Max: 3})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), PromptRequest(DefaultGeminiModel, "hi"))
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGemini_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "", 0, RetryPolicy{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewRuntime_Registry(t *testing.T) {
	assert.Equal(t, []string{ProviderGemini, ProviderOllama, ProviderOpenRouter}, Providers())

	rt, err := NewRuntime(context.Background(), "local", RuntimeConfig{Host: "http://127.0.0.1:11434"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, rt)

	_, err = NewRuntime(context.Background(), "bogus", RuntimeConfig{})
	assert.Error(t, err)
	assert.False(t, RequiresAPIKey("ollama"))
	assert.True(t, RequiresAPIKey(""))
}
