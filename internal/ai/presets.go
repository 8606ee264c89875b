package ai

// PresetCatalog returns the built-in curated catalog for a provider.
func PresetCatalog(provider string) (map[string]ModelInfo, bool) {
	switch NormalizeProvider(provider) {
	case ProviderGemini:
		return map[string]ModelInfo{
			"gemini-2.5-flash": {
				Name:          "gemini-2.5-flash",
				Provider:      ProviderGemini,
				ContextTokens: 1048576,
				InputPerK:     0.0003,
				OutputPerK:    0.0025,
			},
			"gemini-2.5-flash-lite": {
				Name:          "gemini-2.5-flash-lite",
				Provider:      ProviderGemini,
				ContextTokens: 1048576,
				InputPerK:     0.0001,
				OutputPerK:    0.0004,
			},
			"gemini-2.5-pro": {
				Name:          "gemini-2.5-pro",
				Provider:      ProviderGemini,
				ContextTokens: 1048576,
				InputPerK:     0.00125,
				OutputPerK:    0.01,
			},
		}, true
	case ProviderOpenRouter:
		return map[string]ModelInfo{
			"google/gemini-2.5-flash": {
				Name:          "google/gemini-2.5-flash",
				Provider:      ProviderOpenRouter,
				ContextTokens: 1048576,
				InputPerK:     0.0003,
				OutputPerK:    0.0025,
			},
			"openai/gpt-4o-mini": {
				Name:          "openai/gpt-4o-mini",
				Provider:      ProviderOpenRouter,
				ContextTokens: 128000,
				InputPerK:     0.0006,
				OutputPerK:    0.0024,
			},
			"anthropic/claude-3.5-sonnet": {
				Name:          "anthropic/claude-3.5-sonnet",
				Provider:      ProviderOpenRouter,
				ContextTokens: 200000,
				InputPerK:     0.003,
				OutputPerK:    0.015,
			},
			"deepseek/deepseek-r1:free": {
				Name:          "deepseek/deepseek-r1:free",
				Provider:      ProviderOpenRouter,
				ContextTokens: 128000,
			},
		}, true
	case ProviderOllama:
		return map[string]ModelInfo{
			"llama3.1:8b-instruct": {
				Name:          "llama3.1:8b-instruct",
				Provider:      ProviderOllama,
				ContextTokens: 8192,
			},
			"mistral-nemo:latest": {
				Name:          "mistral-nemo:latest",
				Provider:      ProviderOllama,
				ContextTokens: 8192,
			},
			"phi3:mini-128k-instruct": {
				Name:          "phi3:mini-128k-instruct",
				Provider:      ProviderOllama,
				ContextTokens: 128000,
			},
		}, true
	default:
		return nil, false
	}
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	switch NormalizeProvider(provider) {
	case ProviderOpenRouter:
		return "google/gemini-2.5-flash"
	case ProviderOllama:
		return "llama3.1:8b-instruct"
	default:
		return DefaultGeminiModel
	}
}
