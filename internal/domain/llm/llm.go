package llm

import (
	"context"
	"fmt"
	"time"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is the provider-agnostic unit of conversation sent to an adapter.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reply is the provider-agnostic result of a successful generation.
type Reply struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// ProviderKind identifies an adapter family.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderGoogle    ProviderKind = "google"
)

// ModelID is a model identifier accepted by the gateway.
type ModelID string

const (
	ModelGPT4      ModelID = "gpt-4"
	ModelClaude3   ModelID = "claude-3"
	ModelGeminiPro ModelID = "gemini-pro"
)

// modelProviders is the closed set of supported models.
var modelProviders = map[ModelID]ProviderKind{
	ModelGPT4:      ProviderOpenAI,
	ModelClaude3:   ProviderAnthropic,
	ModelGeminiPro: ProviderGoogle,
}

// ResolveModel returns the provider serving id.
func ResolveModel(id string) (ModelID, ProviderKind, bool) {
	model := ModelID(id)
	kind, ok := modelProviders[model]
	return model, kind, ok
}

// SupportedModels lists the accepted model identifiers.
func SupportedModels() []ModelID {
	return []ModelID{ModelGPT4, ModelClaude3, ModelGeminiPro}
}

// Adapter translates canonical turns into one vendor protocol and back.
// Implementations make exactly one outbound request per call and keep no state between calls.
type Adapter interface {
	Send(ctx context.Context, model ModelID, history []Turn) (string, error)
}

// ValidateHistory checks the input constraints shared by all adapters.
func ValidateHistory(history []Turn) error {
	if len(history) == 0 {
		return ErrEmptyHistory
	}
	for i, turn := range history {
		if !turn.Role.Valid() {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}
