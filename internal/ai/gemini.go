package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient generates text through the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	retry  RetryPolicy
}

// NewGeminiClient creates a Gemini API client for apiKey. baseURL is only
// set in tests to point the SDK at a local server.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, httpTimeout time.Duration, retry RetryPolicy) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: httpTimeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, retry: retry.normalized(2, 300*time.Millisecond, 2*time.Second)}, nil
}

// Generate maps the request onto GenerateContent. System turns become the
// system instruction; assistant turns are sent with the model role.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.Max; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			out := &GenerateResponse{
				ID:        resp.ResponseID,
				Choices:   []Choice{{Message: Message{Role: "assistant", Content: resp.Text()}}},
				RequestID: resp.ResponseID,
			}
			if u := resp.UsageMetadata; u != nil {
				out.Usage = Usage{
					PromptTokens:     int(u.PromptTokenCount),
					CompletionTokens: int(u.CandidatesTokenCount),
					TotalTokens:      int(u.TotalTokenCount),
				}
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var retryable bool
		lastErr, retryable = classifyGenAIError(err)
		if !retryable || attempt == c.retry.Max {
			return nil, lastErr
		}
		if err := sleepCtx(ctx, c.retry.backoff(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// classifyGenAIError maps SDK errors onto the shared typed errors.
func classifyGenAIError(err error) (error, bool) {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return fmt.Errorf("gemini: %w", err), isRetryableNetErr(err)
	}
	mapped := &APIError{StatusCode: apiErr.Code, Code: apiErr.Status, Message: apiErr.Message}
	return classifyAPIError(mapped, 0), isRetryableStatus(apiErr.Code)
}
