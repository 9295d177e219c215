// Package llm provides text-generation providers behind a common interface.
package llm

import (
	"context"
	"time"
)

const defaultTimeout = 60 * time.Second

// Provider generates text through an external model API.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string
	// GenerateMessage sends a prompt with a system instruction and returns the
	// model's text reply, trimmed.
	GenerateMessage(ctx context.Context, prompt string, system string) (string, error)
}

// Options configures provider construction.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	APIBase  string
	Timeout  time.Duration
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
