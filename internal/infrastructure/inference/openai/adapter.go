package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/functional"
	"multichat/internal/utils/httpclients"
)

const (
	ProviderName = "OpenAI"

	DefaultModel       = "gpt-4"
	DefaultMaxTokens   = 4000
	DefaultTemperature = float32(0.7)
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Adapter speaks the chat completions protocol. System turns stay inline in the
// message list.
type Adapter struct {
	client *resty.Client
	cfg    Config
}

func NewAdapter(client *resty.Client, cfg Config) *Adapter {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Adapter{client: client, cfg: cfg}
}

func (a *Adapter) Send(ctx context.Context, _ llm.ModelID, history []llm.Turn) (string, error) {
	if err := llm.ValidateHistory(history); err != nil {
		return "", err
	}
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return "", llm.MissingCredentialError(ProviderName)
	}

	payload := BuildRequest(a.cfg, history)
	req := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := httpclients.PostJSON(req, a.cfg.BaseURL+"/chat/completions", payload)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", ProviderName, err)
	}
	if !resp.IsSuccess() {
		return "", &llm.ProviderError{Provider: ProviderName, Status: resp.Status, Message: errorMessage(resp.Body)}
	}
	return completionText(resp.Body)
}

// ChatCompletionRequest is the body of POST /chat/completions. Content and
// temperature are always encoded so empty turns and a zero temperature reach the vendor.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float32      `json:"temperature"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequest translates the conversation into a chat completion request.
func BuildRequest(cfg Config, history []llm.Turn) ChatCompletionRequest {
	temperature := cfg.Temperature
	return ChatCompletionRequest{
		Model: cfg.Model,
		Messages: functional.Map(history, func(turn llm.Turn) ChatMessage {
			return ChatMessage{Role: string(turn.Role), Content: turn.Content}
		}),
		MaxTokens:   cfg.MaxTokens,
		Temperature: &temperature,
	}
}

func completionText(body []byte) (string, error) {
	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%w: %s: %v", llm.ErrMalformedResponse, ProviderName, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return llm.NoResponsePlaceholder, nil
	}
	return completion.Choices[0].Message.Content, nil
}

func errorMessage(body []byte) string {
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil || envelope.Error.Message == "" {
		return "Unknown error"
	}
	return envelope.Error.Message
}
