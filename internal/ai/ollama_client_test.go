package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        4,
		})
	}))

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{Max: 1})
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:     "llama3.1:8b-instruct",
		Messages:  []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		MaxTokens: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from ollama", resp.Text())
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RequestID)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.False(t, captured.Stream)
	assert.EqualValues(t, 16, captured.Options["num_predict"])
}

func TestOllamaGenerateModelMissing(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'nope' not found"})
	}))
	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{Max: 1})
	_, err := c.Generate(context.Background(), PromptRequest("nope", "hi"))
	var mnf *ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.Contains(t, mnf.Message, "not found")
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", time.Second, RetryPolicy{Max: 1})
	_, err := c.Generate(context.Background(), PromptRequest("llama3", "hi"))
	var ue *UnreachableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "http://127.0.0.1:1", ue.Host)
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("", 0, RetryPolicy{})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3", Messages: []Message{}})
	require.EqualError(t, err, "messages cannot be empty")
}

func TestOllamaGenerateEmptyContent(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": ""},
			"done":    true,
		})
	}))
	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{Max: 1})
	resp, err := c.Generate(context.Background(), PromptRequest("llama3.1:8b-instruct", "hi"))
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}
