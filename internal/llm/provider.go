package llm

import (
	"context"

	"bargain-bites/internal/config"
)

// NewTextGenerator builds the generator selected by LLM_PROVIDER. The
// returned Closer is nil when the provider holds no resources.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, Closer, error) {
	if cfg.LLMProvider == config.ProviderGroq {
		return NewGroqClient(cfg), nil, nil
	}
	gemini, err := NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return gemini, gemini, nil
}
