// Package generation wraps a runtime call with GrowMint's availability
// policy: three immediate attempts on the primary credential, then exactly
// one attempt on the secondary credential.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/ai"
)

const (
	// PrimaryAttempts is the number of sequential tries on the primary credential.
	PrimaryAttempts = 3
	// DefaultAttemptTimeout bounds a single attempt.
	DefaultAttemptTimeout = 60 * time.Second
)

// Generator turns a prompt into text. Implemented by *Client and by test fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNoFallback is wrapped around the last primary error when no secondary
// credential is configured.
var ErrNoFallback = errors.New("primary exhausted and no fallback credential configured")

// FallbackError is returned when both tiers are exhausted. It unwraps to the
// secondary failure.
type FallbackError struct {
	Primary   error
	Secondary error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("generation failed on fallback credential: %v (primary: %v)", e.Secondary, e.Primary)
}

func (e *FallbackError) Unwrap() error { return e.Secondary }

// Config tunes a Client.
type Config struct {
	Model          string
	MaxTokens      int
	Temperature    float64
	AttemptTimeout time.Duration
}

// Client runs the retry-then-fallback policy over two runtimes.
type Client struct {
	primary   ai.Runtime
	secondary ai.Runtime
	cfg       Config
	logger    *slog.Logger
}

// NewClient builds a Client. secondary may be nil.
func NewClient(primary, secondary ai.Runtime, cfg Config, logger *slog.Logger) *Client {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{primary: primary, secondary: secondary, cfg: cfg, logger: logger.With("component", "generation")}
}

// Generate returns the model's text verbatim. Cancellation of ctx stops the
// loop at once and is never followed by a fallback attempt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= PrimaryAttempts; attempt++ {
		text, err := c.attempt(ctx, c.primary, prompt)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("primary succeeded after retries", "attempt", attempt)
			}
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		c.logger.Warn("primary attempt failed", "attempt", attempt, "of", PrimaryAttempts, "err", err)
	}

	if c.secondary == nil {
		return "", fmt.Errorf("%w: %w", ErrNoFallback, lastErr)
	}
	c.logger.Warn("switching to fallback credential")
	text, err := c.attempt(ctx, c.secondary, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Error("fallback attempt failed", "err", err)
		return "", &FallbackError{Primary: lastErr, Secondary: err}
	}
	return text, nil
}

func (c *Client) attempt(ctx context.Context, rt ai.Runtime, prompt string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req := ai.PromptRequest(c.cfg.Model, prompt)
	req.MaxTokens = c.cfg.MaxTokens
	req.Temperature = c.cfg.Temperature

	resp, err := rt.Generate(actx, req)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("attempt timed out after %s: %w", c.cfg.AttemptTimeout, err)
		}
		return "", err
	}
	return resp.Text(), nil
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }
