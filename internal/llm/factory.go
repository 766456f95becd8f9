package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/realcheck/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables the LLM and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config into an llm.Config,
// carrying the outbound proxy settings along.
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Timeout:        cfg.LLM.Timeout,
		StrictEvidence: cfg.LLM.StrictEvidence,
		MaxTokens:      cfg.LLM.MaxTokens,
		HTTPProxy:      cfg.HTTP.HTTPProxy,
		HTTPSProxy:     cfg.HTTP.HTTPSProxy,
		NoProxy:        cfg.HTTP.NoProxy,
	}
}
