package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/realcheck/internal/model"
)

const envPrefix = "REALCHECK"

// Provider credentials read from their conventional variables
const (
	envHFToken      = "HF_TOKEN"
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envSerpAPIKey   = "SERPAPI_API_KEY"
	envOllamaURL    = "OLLAMA_BASE_URL"
)

// configDir returns ~/.realcheck
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".realcheck"), nil
}

// newViper builds a viper instance over path, or ~/.realcheck/config.yaml
// when path is empty. A missing default file is not an error.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		return v, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := configDir()
		if err != nil {
			return v, err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return v, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// setDefaults registers every default key so environment variables can
// override settings that the config file does not mention.
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaultTree(v, "", tree)
	return nil
}

func setDefaultTree(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaultTree(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig merges defaults, the config file and the environment.
// Defaults must already be registered on v.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnvKeys(cfg)
	return cfg, nil
}

// applyEnvKeys fills provider credentials that the config left empty
func applyEnvKeys(cfg *model.Config) {
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv(envHFToken)
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv(envSerpAPIKey)
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv(envOpenAIKey)
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv(envAnthropicKey)
		}
	case "ollama":
		if base := os.Getenv(envOllamaURL); base != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
	}
}

// requireLLMKey reports a missing credential for providers that need one
func requireLLMKey(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("%s environment variable not set", envOpenAIKey)
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("%s environment variable not set", envAnthropicKey)
		}
	}
	return nil
}
