package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spec-kit/campusdesk/internal/config"
)

// AnthropicCompleter sends prompts to the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAnthropicCompleter builds a completer from classifier configuration.
func NewAnthropicCompleter(cfg config.ClassifierConfig, logger *zap.Logger) *AnthropicCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	)
	return &AnthropicCompleter{
		client:    client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout(),
		logger:    logger,
	}
}

// Complete returns the first text block of the model reply.
func (a *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			a.logger.Debug("anthropic completion",
				zap.String("model", a.model),
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", message.Usage.InputTokens),
				zap.Int64("tokens_out", message.Usage.OutputTokens))
			return block.Text, nil
		}
	}
	return "", ErrEmptyCompletion
}
