// Package llm drives all text generation for the pipeline: script writing,
// search-term extraction, topic ideation and publish metadata. Providers are
// pluggable behind the Client interface; everything OpenAI-compatible shares
// one HTTP client, Gemini goes through the official SDK.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipforge/internal/config"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Sentinel errors callers branch on.
var (
	ErrEmptyResponse = errors.New("provider returned an empty response")
	ErrNoAPIKey      = errors.New("API key not configured")
)

// Base URLs for the OpenAI-compatible providers that have well-known hosts.
var providerBaseURLs = map[string]string{
	"openai":       "https://api.openai.com/v1",
	"deepseek":     "https://api.deepseek.com",
	"moonshot":     "https://api.moonshot.cn/v1",
	"ollama":       "http://localhost:11434/v1",
	"modelscope":   "https://api-inference.modelscope.cn/v1",
	"sumopod":      "https://ai.sumopod.com/v1",
	"pollinations": "https://text.pollinations.ai/openai",
}

// Providers that work without an API key.
var keylessProviders = map[string]bool{
	"ollama":       true,
	"pollinations": true,
}

// NewClient builds a provider client from config.
func NewClient(cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(cfg.APIKey, cfg.Model)
	case "openai", "deepseek", "moonshot", "ollama", "oneapi", "modelscope", "sumopod", "pollinations", "azure":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = providerBaseURLs[cfg.Provider]
		}
		if baseURL == "" {
			return nil, fmt.Errorf("%s: base_url is not set", cfg.Provider)
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			if !keylessProviders[cfg.Provider] {
				return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrNoAPIKey)
			}
			apiKey = cfg.Provider // any string works for keyless providers
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("%s: model is not set", cfg.Provider)
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
