// Package openai provides the chat completion adapter for OpenAI and
// OpenAI-compatible servers such as Ollama
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrNoChoices is returned when the provider answers without any completion
var ErrNoChoices = errors.New("completion contained no choices")

// Config holds the provider connection settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client implements outbound.ChatCompletionClient using go-openai
type Client struct {
	client      *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

var _ outbound.ChatCompletionClient = (*Client)(nil)

// NewClient creates a new client. An empty BaseURL targets the OpenAI API.
func NewClient(config Config, logger *zap.Logger) *Client {
	apiKey := config.APIKey
	if apiKey == "" {
		// Local OpenAI-compatible servers ignore the key but the header must be set
		apiKey = "ollama"
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   config.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	logger.Info("Chat completion client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", config.Model),
	)

	return &Client{
		client:      goopenai.NewClientWithConfig(cfg),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: float32(config.Temperature),
		logger:      logger,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Complete sends the conversation and returns the first choice
func (c *Client) Complete(ctx context.Context, messages []outbound.ChatMessage) (*outbound.ChatCompletion, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toProviderMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Debug("Provider returned an error",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("message", apiErr.Message),
			)
		}
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	choice := resp.Choices[0]
	return &outbound.ChatCompletion{
		Content:      choice.Message.Content,
		Model:        model,
		FinishReason: string(choice.FinishReason),
		Usage: outbound.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toProviderMessages(messages []outbound.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
