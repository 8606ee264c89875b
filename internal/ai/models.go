package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ModelInfo is the catalog entry used for context-window warnings.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var (
	catalogMu sync.RWMutex
	models    = map[string]ModelInfo{}
)

func init() {
	for _, p := range []string{ProviderGemini, ProviderOpenRouter, ProviderOllama} {
		m, _ := PresetCatalog(p)
		MergeCatalog(m)
	}
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// CheckPromptFits returns a warning when promptTokens plus the reserved
// output budget exceed the model's known context window. Unknown models pass.
func CheckPromptFits(model string, promptTokens, reserve int) string {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return ""
	}
	if promptTokens+reserve > mi.ContextTokens {
		return fmt.Sprintf("prompt is about %d tokens; %s accepts about %d (including %d reserved for the reply)",
			promptTokens, model, mi.ContextTokens, reserve)
	}
	return ""
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example entry:
// { "gemini-2.5-flash": {"Name":"gemini-2.5-flash","ContextTokens":1048576} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// Catalog returns the current catalog sorted by provider then name.
func Catalog() []ModelInfo {
	catalogMu.RLock()
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	catalogMu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
