// Package openai wraps the OpenAI chat completion API for narrative commentary.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4o-mini"

// ErrNotConfigured is returned by Complete when no API key is set
var ErrNotConfigured = errors.New("openai: api key not configured")

// Client sends chat completions
type Client struct {
	cli       oa.Client
	enabled   bool
	model     string
	maxTokens int64
	log       zerolog.Logger
}

// NewClient creates a chat client. An empty apiKey yields a disabled client
// whose Complete always returns ErrNotConfigured.
func NewClient(apiKey, model string, log zerolog.Logger, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &Client{
		cli:       oa.NewClient(opts...),
		enabled:   apiKey != "",
		model:     model,
		maxTokens: 800,
		log:       log.With().Str("client", "openai").Logger(),
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.enabled
}

// Model returns the chat model in use
func (c *Client) Model() string {
	return c.model
}

// Complete sends one system and one user message and returns the trimmed reply
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if !c.enabled {
		return "", ErrNotConfigured
	}

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(system),
			oa.UserMessage(prompt),
		},
		MaxTokens:   oa.Int(c.maxTokens),
		Temperature: oa.Float(0.2),
	})
	if err != nil {
		c.log.Error().Err(err).Str("model", c.model).Msg("Chat completion failed")
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.log.Debug().
		Str("model", c.model).
		Int64("total_tokens", resp.Usage.TotalTokens).
		Msg("Chat completion done")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
