package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"multichat/internal/infrastructure/logger"
)

const DefaultProviderConfigFile = "config/providers.yml"

// ProviderTune holds optional per-provider settings read from the provider config file.
// Zero values mean "use the adapter default".
type ProviderTune struct {
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`
}

type providerConfigDocument struct {
	Providers map[string]ProviderTune `yaml:"providers"`
}

var knownProviders = map[string]struct{}{
	"openai":    {},
	"anthropic": {},
	"google":    {},
}

// LoadProviderOverrides parses the yaml file at path. A missing file is only an error
// when the path was set explicitly.
func LoadProviderOverrides(path string, required bool) (map[string]ProviderTune, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("provider config path is empty")
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("read provider config %q: %w", cleanPath, err)
	}
	log := logger.GetLogger()
	log.Info().Str("path", cleanPath).Msg("loading provider config file")

	return parseProviderOverrides(data, cleanPath)
}

func parseProviderOverrides(data []byte, source string) (map[string]ProviderTune, error) {
	var doc providerConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse provider config %q: %w", source, err)
	}

	result := make(map[string]ProviderTune, len(doc.Providers))
	for rawName, tune := range doc.Providers {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if _, ok := knownProviders[name]; !ok {
			return nil, fmt.Errorf("provider config %q: unknown provider %q", source, rawName)
		}
		if tune.MaxTokens < 0 {
			return nil, fmt.Errorf("providers.%s.max_tokens must not be negative", name)
		}
		tune.Model = strings.TrimSpace(os.ExpandEnv(tune.Model))
		tune.BaseURL = strings.TrimSpace(os.ExpandEnv(tune.BaseURL))
		result[name] = tune
	}
	return result, nil
}
