package inference

import (
	"github.com/google/wire"

	"multichat/internal/config"
	"multichat/internal/domain/llm"
	"multichat/internal/infrastructure/inference/anthropic"
	"multichat/internal/infrastructure/inference/google"
	"multichat/internal/infrastructure/inference/openai"
	"multichat/internal/utils/httpclients"
)

var InferenceProviderSet = wire.NewSet(
	NewAdapters,
	NewGateway,
)

// Adapters is the provider kind to adapter table handed to the gateway.
type Adapters map[llm.ProviderKind]llm.Adapter

// NewAdapters builds one adapter per provider kind from the environment and the
// provider config file. Adapters are registered even without a credential so that
// a call reports a missing key rather than an unsupported model.
func NewAdapters(cfg *config.Config) Adapters {
	openaiTune := cfg.Tune(string(llm.ProviderOpenAI))
	anthropicTune := cfg.Tune(string(llm.ProviderAnthropic))
	googleTune := cfg.Tune(string(llm.ProviderGoogle))

	return Adapters{
		llm.ProviderOpenAI: instrument(llm.ProviderOpenAI, openai.NewAdapter(
			httpclients.NewClient("OpenAIClient", cfg.ProviderTimeout),
			openai.Config{
				APIKey:      cfg.OpenAIAPIKey,
				BaseURL:     firstNonEmpty(openaiTune.BaseURL, cfg.OpenAIBaseURL),
				Model:       openaiTune.Model,
				MaxTokens:   openaiTune.MaxTokens,
				Temperature: temperature(openaiTune, openai.DefaultTemperature),
			},
		)),
		llm.ProviderAnthropic: instrument(llm.ProviderAnthropic, anthropic.NewAdapter(
			httpclients.NewClient("AnthropicClient", cfg.ProviderTimeout),
			anthropic.Config{
				APIKey:    cfg.AnthropicAPIKey,
				BaseURL:   firstNonEmpty(anthropicTune.BaseURL, cfg.AnthropicBaseURL),
				Model:     anthropicTune.Model,
				MaxTokens: anthropicTune.MaxTokens,
			},
		)),
		llm.ProviderGoogle: instrument(llm.ProviderGoogle, google.NewAdapter(
			httpclients.NewClient("GoogleClient", cfg.ProviderTimeout),
			google.Config{
				APIKey:      cfg.GoogleAPIKey,
				BaseURL:     firstNonEmpty(googleTune.BaseURL, cfg.GoogleBaseURL),
				Model:       googleTune.Model,
				MaxTokens:   googleTune.MaxTokens,
				Temperature: temperature(googleTune, google.DefaultTemperature),
			},
		)),
	}
}

func temperature(tune config.ProviderTune, fallback float32) float32 {
	if tune.Temperature != nil {
		return *tune.Temperature
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewGateway binds the adapter table to a gateway.
func NewGateway(adapters Adapters) *llm.Gateway {
	return llm.NewGateway(adapters)
}
