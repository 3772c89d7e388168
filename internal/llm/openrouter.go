package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// Model ids are vendor-prefixed ("google/gemini-2.0-flash-exp") and are
// passed through unchanged.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, attributionHeaders(cfg))
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// attributionHeaders identifies the app on OpenRouter's usage pages.
func attributionHeaders(cfg OpenRouterConfig) http.Header {
	h := make(http.Header)
	if cfg.AppName != "" {
		h.Set("X-Title", cfg.AppName)
	}
	if cfg.SiteURL != "" {
		h.Set("HTTP-Referer", cfg.SiteURL)
	}
	return h
}
