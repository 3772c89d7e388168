package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/lessonquiz/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// eventRepo may be nil, in which case calls are only logged to logger.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → logging → base
	logged := WithLogging(base, eventRepo, logger)
	if cfg.Retry.OnRetry == nil && logger != nil {
		cfg.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
			logger.Info("llm request retry", "provider", cfg.Provider, "attempt", attempt, "wait", wait, "error", err)
		}
	}
	retried := WithRetry(logged, cfg.Retry)

	return WithTimeout(retried, cfg.Timeout), nil
}

// NewProviderFromEnv resolves the configuration from the environment and
// builds the provider. See ResolveConfig.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *slog.Logger) (Provider, Config, error) {
	cfg, err := ResolveConfig()
	if err != nil {
		return nil, cfg, err
	}
	p, err := NewProvider(ctx, cfg, eventRepo, logger)
	return p, cfg, err
}
