package llm

import "errors"

var (
	// ErrMissingAPIKey indicates no API key was found in config or environment.
	ErrMissingAPIKey = errors.New("API key not set")

	// ErrEmptyResponse indicates the provider answered without usable text.
	ErrEmptyResponse = errors.New("provider returned an empty response")

	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable indicates the provider endpoint could not be reached.
	ErrUnavailable = errors.New("provider unavailable")
)
