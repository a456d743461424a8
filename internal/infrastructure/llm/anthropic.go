// Package llm adapts the Anthropic Messages API to the content generator port.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
)

// DefaultSystemPrompt is used when neither the config nor the request supplies one.
const DefaultSystemPrompt = "You are the marketing assistant of TISA, an international school. " +
	"Answer with the requested text only, ready to publish, without preamble."

type Config struct {
	APIKey           string
	Model            string
	MaxTokens        int64
	BaseURL          string
	SystemPromptPath string
	MaxRetries       int
	Timeout          time.Duration
}

// Client implements the content generator port over anthropic.Client.
type Client struct {
	api       anthropic.Client
	model     string
	maxTokens int64
	system    string
	timeout   time.Duration
	logger    *zap.Logger
}

// New builds a client. It returns domain.ErrGeneratorDisabled when no API key is set.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, domain.ErrGeneratorDisabled
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	system := DefaultSystemPrompt
	if cfg.SystemPromptPath != "" {
		raw, err := os.ReadFile(cfg.SystemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		system = strings.TrimSpace(string(raw))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		system:    system,
		timeout:   cfg.Timeout,
		logger:    logger,
	}, nil
}

// Generate sends the prompt with its prior turns and returns the concatenated text blocks.
func (c *Client) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system := c.system
	if prompt.System != "" {
		system = prompt.System
	}

	messages := make([]anthropic.MessageParam, 0, len(prompt.History)+1)
	for _, m := range prompt.History {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domain.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.Text)))

	started := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeUpstream, "anthropic messages call failed", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	c.logger.Debug("generation completed",
		zap.String("model", c.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("took", time.Since(started)),
	)

	if text == "" {
		return "", domain.ErrEmptyGeneration
	}
	return text, nil
}
