package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiProvider talks to the Gemini API through the official client.
type geminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func newGeminiProvider(ctx context.Context, opts Options, apiKey string) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &geminiProvider{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

func (p *geminiProvider) Name() string {
	return ProviderGemini
}

func (p *geminiProvider) GenerateMessage(ctx context.Context, prompt string, system string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	text := strings.TrimSpace(candidate.Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// classifyGeminiError maps API failures onto the package sentinels. The
// client surfaces status codes inside error strings, so matching on
// substrings is the practical option.
func classifyGeminiError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("gemini: rate limited: %w", err)
	case strings.Contains(msg, "503"), strings.Contains(msg, "UNAVAILABLE"), strings.Contains(msg, "connection refused"):
		return fmt.Errorf("gemini: %w: %s", ErrUnavailable, msg)
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"), strings.Contains(msg, "API key"):
		return fmt.Errorf("gemini: invalid credentials: %w", err)
	default:
		return fmt.Errorf("gemini: %w", err)
	}
}
