package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resty.dev/v3"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/functional"
	"multichat/internal/utils/httpclients"
)

const (
	ProviderName = "Claude"
	APIVersion   = "2023-06-01"

	DefaultModel     = "claude-3-sonnet-20240229"
	DefaultMaxTokens = 4000
)

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type Adapter struct {
	client *resty.Client
	cfg    Config
}

// MessagesRequest is the body of POST /messages.
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type errorEnvelope struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
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

	req := a.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", a.cfg.APIKey).
		SetHeader("anthropic-version", APIVersion)

	resp, err := httpclients.PostJSON(req, a.cfg.BaseURL+"/messages", BuildRequest(a.cfg, history))
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", ProviderName, err)
	}
	if !resp.IsSuccess() {
		return "", &llm.ProviderError{Provider: ProviderName, Status: resp.Status, Message: errorMessage(resp.Body)}
	}

	var decoded messagesResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %s: %v", llm.ErrMalformedResponse, ProviderName, err)
	}
	if len(decoded.Content) == 0 || decoded.Content[0].Text == "" {
		return llm.NoResponsePlaceholder, nil
	}
	return decoded.Content[0].Text, nil
}

// BuildRequest lifts the first system turn into the system field. Later system
// turns are dropped; every other turn is kept in order.
func BuildRequest(cfg Config, history []llm.Turn) MessagesRequest {
	out := MessagesRequest{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	for _, turn := range history {
		if turn.Role == llm.RoleSystem {
			out.System = turn.Content
			break
		}
	}
	conversation := functional.Filter(history, func(turn llm.Turn) bool {
		return turn.Role != llm.RoleSystem
	})
	out.Messages = functional.Map(conversation, func(turn llm.Turn) Message {
		return Message{Role: string(turn.Role), Content: turn.Content}
	})
	return out
}

func errorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil || envelope.Error.Message == "" {
		return "Unknown error"
	}
	return envelope.Error.Message
}
