// Package grok provides a client for the x.ai Grok chat completions API.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

const (
	// DefaultMaxTokens is the completion budget used when no override is given.
	DefaultMaxTokens = 512
	// DefaultTemperature keeps scoring output close to deterministic.
	DefaultTemperature = 0.2

	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the Grok chat completions endpoint.
// Grok exposes an OpenAI-compatible API, so requests and responses follow
// the chat completions wire format.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *logger.Logger
}

// NewClient creates a Grok client from explicit configuration.
func NewClient(cfg config.GrokConfig, log *logger.Logger) *Client {
	timeout := cfg.GetGrokTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  cfg.GetGrokAPIKey(),
		baseURL: cfg.GetGrokAPIURL(),
		model:   cfg.GetGrokModel(),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends a single-shot prompt and returns the completion text.
// The call is blocking with a bounded timeout; failures surface as a
// BadGateway domain error and are never retried here.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", apperr.BadGateway("GROK_API_KEY is not configured")
	}

	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if c.log != nil {
		c.log.AICall(c.model, len(prompt), maxTokens, temperature)
	}

	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal grok request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build grok request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadGateway, "network error contacting Grok", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadGateway, "read Grok response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.BadGateway(fmt.Sprintf("Grok API returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Wrap(apperr.KindBadGateway, "decode Grok response", err)
	}

	if len(parsed.Choices) == 0 {
		return "", apperr.BadGateway("unexpected Grok response format: no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
