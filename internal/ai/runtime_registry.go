package ai

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(ctx context.Context, cfg RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	Retry       RetryPolicy
	// APIKey is used by gemini and openrouter.
	APIKey string
	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL string
	// Host is the Ollama daemon address.
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewRuntime creates a Runtime for the given provider.
func NewRuntime(ctx context.Context, provider string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[NormalizeProvider(provider)]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (want one of %v)", provider, Providers())
	}
	return f(ctx, cfg)
}

// Providers lists the registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RequiresAPIKey reports whether provider authenticates with an API key.
func RequiresAPIKey(provider string) bool {
	return NormalizeProvider(provider) != ProviderOllama
}

func init() {
	RegisterRuntime(ProviderGemini, func(ctx context.Context, c RuntimeConfig) (Runtime, error) {
		return NewGeminiClient(ctx, c.APIKey, c.BaseURL, c.HTTPTimeout, c.Retry)
	})
	RegisterRuntime(ProviderOpenRouter, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewOpenRouterClient(c.APIKey, c.BaseURL, c.HTTPTimeout, c.Retry), nil
	})
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		host := c.Host
		if host == "" {
			host = c.BaseURL
		}
		return NewOllamaClient(host, c.HTTPTimeout, c.Retry), nil
	})
}
