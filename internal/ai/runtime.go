// Package ai holds the text-generation runtimes GrowMint can talk to: the
// Gemini API (default), OpenRouter and a local Ollama daemon. Each runtime
// performs one logical completion per Generate call; retry and credential
// fallback policy lives one level up, in the generation package.
package ai

import (
	"context"
	"strings"
)

// Runtime is implemented by every generation backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by configuration and the --provider flag.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Message is one chat turn sent to a runtime.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the provider-neutral completion request.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// PromptRequest wraps a fully assembled prompt as a single user turn.
func PromptRequest(model, prompt string) GenerateRequest {
	return GenerateRequest{Model: model, Messages: []Message{{Role: "user", Content: prompt}}}
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

// GenerateResponse mirrors the OpenAI-compatible response shape; the other
// runtimes map their payloads onto it.
type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the content of the first choice, verbatim.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// NormalizeProvider lower-cases a provider name and maps historical aliases.
func NormalizeProvider(name string) string {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case "", "google":
		return ProviderGemini
	case "local":
		return ProviderOllama
	default:
		return p
	}
}
