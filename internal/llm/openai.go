package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
)

const openAIRetryWindow = 30 * time.Second

// openAIProvider talks to the OpenAI chat completion API. Any endpoint that
// speaks the same protocol works through the APIBase override.
type openAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func newOpenAIProvider(opts Options, apiKey string) *openAIProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if opts.APIBase != "" {
		clientConfig.BaseURL = opts.APIBase
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: opts.Timeout,
	}
}

func (p *openAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *openAIProvider) GenerateMessage(ctx context.Context, prompt string, system string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var content string
	operation := func() error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if isRetryableOpenAI(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(ErrEmptyResponse)
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = openAIRetryWindow
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return content, nil
}

// isRetryableOpenAI reports whether the request is worth repeating: rate
// limits, server errors, and transient network timeouts.
func isRetryableOpenAI(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
