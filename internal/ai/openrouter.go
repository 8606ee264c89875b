package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient talks to the OpenAI-compatible OpenRouter chat endpoint.
type OpenRouterClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      RetryPolicy
}

// NewOpenRouterClient builds a client. A zero retry policy gets the defaults
// of three attempts with 500ms..4s backoff.
func NewOpenRouterClient(apiKey, baseURL string, httpTimeout time.Duration, retry RetryPolicy) *OpenRouterClient {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	return &OpenRouterClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		retry:      retry.normalized(3, 500*time.Millisecond, 4*time.Second),
	}
}

// Generate posts one chat completion, retrying 429/5xx and transient network
// failures up to the configured attempt count.
func (c *OpenRouterClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= c.retry.Max; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, wait, err := c.do(ctx, endpoint, payload, attempt < c.retry.Max)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if wait < 0 {
			break
		}
		if wait == 0 {
			wait = c.retry.backoff(attempt)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// do performs one request. wait < 0 means the error is final.
func (c *OpenRouterClient) do(ctx context.Context, endpoint string, payload []byte, canRetry bool) (*GenerateResponse, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, -1, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://github.com/ayushmankoley/GrowMint")
	httpReq.Header.Set("X-Title", "GrowMint")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if canRetry && isRetryableNetErr(err) {
			return nil, 0, err
		}
		return nil, -1, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		ra := retryAfter(resp)
		if canRetry && isRetryableStatus(resp.StatusCode) {
			return nil, ra, apiErr
		}
		return nil, -1, classifyAPIError(apiErr, ra)
	}
	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, -1, fmt.Errorf("decode response: %w", err)
	}
	out.RequestID = extractRequestID(resp)
	if len(out.Choices) == 0 {
		return nil, -1, ErrEmptyResponse
	}
	return &out, 0, nil
}
