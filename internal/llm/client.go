// Package llm provides the OpenAI-compatible text-generation client used by
// the recommendation advisor.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TextGenerator is the surface the advisor depends on. The external service
// is a single request/response, text in, text out.
type TextGenerator interface {
	GenerateResponse(ctx context.Context, systemMessage, prompt string) (string, error)
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint    string  // Base URL, e.g., "https://api.openai.com/v1"
	Model       string  // Model name, e.g., "gpt-4o-mini"
	APIKey      string  // Optional for local endpoints
	Temperature float64
}

// Configured reports whether enough is set to reach a service at all. When
// false the caller skips the external adapter entirely.
func (c *Config) Configured() bool {
	return c != nil && c.Endpoint != "" && c.Model != ""
}

// Client provides access to OpenAI-compatible LLM endpoints.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm"),
	}, nil
}

// GenerateResponse sends one system+user chat completion and returns the raw
// model text. Every error path (transport, non-2xx, empty completion) comes
// back as a plain error for the caller's fallback handling.
func (c *Client) GenerateResponse(ctx context.Context, systemMessage, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		c.logger.Warn("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

var _ TextGenerator = (*Client)(nil)
