// Package generation calls the hosted generative model that synthesizes
// grounded answers from assembled prompts.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for the Gemini client.
const (
	defaultModel       = "gemini-2.0-flash"
	defaultBaseURL     = "https://generativelanguage.googleapis.com"
	defaultTemperature = 0.3
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
	defaultRateLimit   = 2 // requests per second
	defaultBurst       = 4
)

// ErrMissingAPIKey indicates the client was configured without a credential.
var ErrMissingAPIKey = errors.New("generation API key required")

// Config holds configuration for the generation client.
type Config struct {
	// APIKey is the Gemini API credential. Required.
	// Populated from the GEMINI_API_KEY environment variable by default.
	APIKey string `koanf:"api_key"`

	// Model is the generative model name. Default: gemini-2.0-flash.
	Model string `koanf:"model"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `koanf:"base_url"`

	// Temperature is the fixed sampling temperature. Default: 0.3.
	Temperature float64 `koanf:"temperature"`

	// Timeout bounds each outbound call. Default: 60s.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retries for transient failures. Default: 2.
	MaxRetries int `koanf:"max_retries"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Client generates a reply for an assembled prompt.
//
// Errors are classified: *BlockedError for safety-suppressed responses,
// ErrEmptyResponse for textless responses, and wrapped transport/provider
// errors for everything else. The caller maps each class to a fixed
// user-facing message.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// geminiClient implements Client against the Gemini generateContent API.
type geminiClient struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a generation client from the configuration.
func NewClient(cfg Config) (Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &geminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// Generate sends the prompt with the fixed safety settings and temperature,
// retrying transient failures with exponential backoff.
func (g *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		SafetySettings:   defaultSafetySettings,
		GenerationConfig: &generationConfig{Temperature: g.config.Temperature},
	}

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, err := g.doRequest(ctx, req)
		if err == nil {
			return reply, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs one generateContent call and classifies the outcome.
func (g *geminiClient) doRequest(ctx context.Context, req generateRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.config.BaseURL, g.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return extractText(&genResp)
}

// extractText pulls the reply text out of a response, detecting blocked and
// empty outcomes.
func extractText(resp *generateResponse) (string, error) {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}

	if b.Len() > 0 {
		return b.String(), nil
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &BlockedError{Reason: resp.PromptFeedback.BlockReason}
	}
	for _, cand := range resp.Candidates {
		if cand.FinishReason == "SAFETY" {
			return "", &BlockedError{Reason: cand.FinishReason}
		}
	}

	return "", ErrEmptyResponse
}

// Ensure geminiClient implements Client.
var _ Client = (*geminiClient)(nil)
