package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resty.dev/v3"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/functional"
	"multichat/internal/utils/httpclients"
)

const (
	ProviderName = "Google"

	DefaultModel       = "gemini-pro"
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

type Adapter struct {
	client *resty.Client
	cfg    Config
}

type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
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
		SetQueryParam("key", a.cfg.APIKey)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.cfg.BaseURL, url.PathEscape(a.cfg.Model))
	resp, err := httpclients.PostJSON(req, endpoint, BuildRequest(a.cfg, history))
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", ProviderName, redactKey(err, a.cfg.APIKey))
	}
	if !resp.IsSuccess() {
		return "", &llm.ProviderError{Provider: ProviderName, Status: resp.Status, Message: errorMessage(resp.Body)}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %s: %v", llm.ErrMalformedResponse, ProviderName, err)
	}
	if len(decoded.Candidates) == 0 ||
		len(decoded.Candidates[0].Content.Parts) == 0 ||
		decoded.Candidates[0].Content.Parts[0].Text == "" {
		return llm.NoResponsePlaceholder, nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// FlattenHistory renders the conversation as one prompt of "role: content" blocks.
func FlattenHistory(history []llm.Turn) string {
	return strings.Join(functional.Map(history, func(turn llm.Turn) string {
		return string(turn.Role) + ": " + turn.Content
	}), "\n\n")
}

func BuildRequest(cfg Config, history []llm.Turn) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{{Parts: []Part{{Text: FlattenHistory(history)}}}},
		GenerationConfig: GenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
		},
	}
}

func errorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil || envelope.Error.Message == "" {
		return "Unknown error"
	}
	return envelope.Error.Message
}

// redactKey strips the credential from transport errors, which echo the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
