package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	anthropicMaxTokens      = 1024
	anthropicMaxRetries     = 3
	anthropicInitialBackoff = time.Second
)

// anthropicProvider talks to the Anthropic Messages API.
type anthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

func newAnthropicProvider(opts Options, apiKey string) *anthropicProvider {
	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &anthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: opts.Timeout,
	}
}

func (p *anthropicProvider) Name() string {
	return ProviderAnthropic
}

func (p *anthropicProvider) GenerateMessage(ctx context.Context, prompt string, system string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var lastErr error
	for attempt := 0; attempt <= anthropicMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(anthropicInitialBackoff) * math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("anthropic: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		message, err := p.client.Messages.New(ctx, params)
		if err != nil {
			lastErr = err
			if !isRetryableAnthropic(err) {
				return "", fmt.Errorf("anthropic: %w", err)
			}
			continue
		}

		for _, content := range message.Content {
			if content.Type == "text" {
				text := strings.TrimSpace(content.Text)
				if text == "" {
					return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
				}
				return text, nil
			}
		}
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	return "", fmt.Errorf("anthropic: retries exhausted: %w", lastErr)
}

func isRetryableAnthropic(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return strings.Contains(err.Error(), "overloaded_error")
}
