package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/ai"
)

// Settings describes the provider and both credential tiers.
type Settings struct {
	Provider       string
	Model          string
	APIKey         string
	BackupAPIKey   string
	OllamaHost     string
	BaseURL        string
	HTTPTimeout    time.Duration
	AttemptTimeout time.Duration
	MaxTokens      int
	Temperature    float64
}

// New builds a Client whose runtimes make exactly one request per attempt,
// so the attempt counts of Generate are the real request counts.
func New(ctx context.Context, s Settings, logger *slog.Logger) (*Client, error) {
	provider := ai.NormalizeProvider(s.Provider)
	model := s.Model
	if model == "" {
		model = ai.DefaultModel(provider)
	}
	base := ai.RuntimeConfig{
		HTTPTimeout: s.HTTPTimeout,
		Retry:       ai.RetryPolicy{Max: 1},
		BaseURL:     s.BaseURL,
		Host:        s.OllamaHost,
	}

	primaryCfg := base
	primaryCfg.APIKey = s.APIKey
	primary, err := ai.NewRuntime(ctx, provider, primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("primary runtime: %w", err)
	}

	var secondary ai.Runtime
	switch {
	case s.BackupAPIKey != "" && ai.RequiresAPIKey(provider):
		secondaryCfg := base
		secondaryCfg.APIKey = s.BackupAPIKey
		if secondary, err = ai.NewRuntime(ctx, provider, secondaryCfg); err != nil {
			return nil, fmt.Errorf("fallback runtime: %w", err)
		}
	case !ai.RequiresAPIKey(provider):
		// A local daemon has no second credential; retrying it once more is the fallback.
		secondary = primary
	}

	return NewClient(primary, secondary, Config{
		Model:          model,
		MaxTokens:      s.MaxTokens,
		Temperature:    s.Temperature,
		AttemptTimeout: s.AttemptTimeout,
	}, logger), nil
}
