package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetCatalogGemini(t *testing.T) {
	m, ok := PresetCatalog("google")
	require.True(t, ok)
	mi, exists := m[DefaultGeminiModel]
	require.True(t, exists)
	assert.Equal(t, ProviderGemini, mi.Provider)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, DefaultGeminiModel, DefaultModel(""))
	assert.Equal(t, "llama3.1:8b-instruct", DefaultModel("local"))
	assert.Equal(t, "google/gemini-2.5-flash", DefaultModel("openrouter"))
}

func TestCheckPromptFits(t *testing.T) {
	assert.Empty(t, CheckPromptFits("unknown-model", 1_000_000, 0))
	assert.Empty(t, CheckPromptFits("llama3.1:8b-instruct", 4000, 1000))
	assert.Contains(t, CheckPromptFits("llama3.1:8b-instruct", 8000, 1000), "llama3.1:8b-instruct")
}

func TestEstimateCostUSD(t *testing.T) {
	cost, ok := EstimateCostUSD("gemini-2.5-pro", 1000, 1000)
	require.True(t, ok)
	assert.InDelta(t, 0.01125, cost, 1e-9)
	_, ok = EstimateCostUSD("nope", 1, 1)
	assert.False(t, ok)
}
