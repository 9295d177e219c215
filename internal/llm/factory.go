package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Default models used when the configuration does not pick one.
const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
)

// envKeyVars maps each provider to its native API key environment variable.
var envKeyVars = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// SupportedProviders lists the provider names NewProvider accepts.
func SupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderGemini, ProviderAnthropic}
}

// DefaultModel returns the fallback model for a provider.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderGemini:
		return defaultGeminiModel
	case ProviderAnthropic:
		return defaultAnthropicModel
	default:
		return defaultOpenAIModel
	}
}

// ResolveAPIKey returns the key for a provider. The provider's native
// environment variable wins over the configured value so that shell
// exports keep working without touching the config file.
func ResolveAPIKey(provider, configured string) string {
	if envVar, ok := envKeyVars[strings.ToLower(provider)]; ok {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return configured
}

// NewProvider builds the provider named in opts. The context is used for
// construction only; per-call deadlines come from GenerateMessage.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	name := strings.ToLower(opts.Provider)
	if name == "" {
		name = ProviderOpenAI
	}

	apiKey := ResolveAPIKey(name, opts.APIKey)
	if apiKey == "" {
		envVar := envKeyVars[name]
		if envVar == "" {
			return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownProvider, opts.Provider, strings.Join(SupportedProviders(), ", "))
		}
		return nil, fmt.Errorf("%w for %s: run `remsg init` or export %s", ErrMissingAPIKey, name, envVar)
	}

	switch name {
	case ProviderOpenAI:
		return newOpenAIProvider(opts, apiKey), nil
	case ProviderGemini:
		return newGeminiProvider(ctx, opts, apiKey)
	case ProviderAnthropic:
		return newAnthropicProvider(opts, apiKey), nil
	default:
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownProvider, opts.Provider, strings.Join(SupportedProviders(), ", "))
	}
}
