package llm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"multichat/internal/utils/idgen"
)

// Gateway routes a canonical conversation to the adapter serving the requested model.
// The adapter map is read-only after construction, so a Gateway is safe for concurrent use.
type Gateway struct {
	adapters map[ProviderKind]Adapter
	now      func() time.Time
	newID    func() string
}

// NewGateway builds a gateway over one adapter per provider kind.
func NewGateway(adapters map[ProviderKind]Adapter) *Gateway {
	copied := make(map[ProviderKind]Adapter, len(adapters))
	for kind, adapter := range adapters {
		copied[kind] = adapter
	}
	return &Gateway{
		adapters: copied,
		now:      time.Now,
		newID:    func() string { return idgen.New(idgen.PrefixMessage) },
	}
}

// Generate sends history to the adapter for modelID and wraps the text in a Reply.
// Every failure is returned as *GatewayError.
func (g *Gateway) Generate(ctx context.Context, modelID string, history []Turn) (*Reply, error) {
	ctx, span := otel.Tracer("multichat/llm").Start(ctx, "llm.Gateway.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", modelID),
		attribute.Int("llm.turns", len(history)),
	)

	model, kind, ok := ResolveModel(modelID)
	if !ok {
		err := &GatewayError{
			Kind:    KindUnsupportedModel,
			Model:   modelID,
			Message: fmt.Sprintf("Unsupported model: %s", modelID),
		}
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}
	span.SetAttributes(attribute.String("llm.provider", string(kind)))

	if err := ValidateHistory(history); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &GatewayError{Kind: KindInvalidRequest, Model: modelID, Message: err.Error(), Err: err}
	}

	adapter, ok := g.adapters[kind]
	if !ok || adapter == nil {
		err := MissingCredentialError(string(kind))
		span.SetStatus(codes.Error, err.Error())
		return nil, &GatewayError{Kind: KindMissingCredential, Model: modelID, Message: err.Error(), Err: err}
	}

	text, err := adapter.Send(ctx, model, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &GatewayError{Kind: Classify(err), Model: modelID, Message: err.Error(), Err: err}
	}

	return &Reply{
		ID:        g.newID(),
		Content:   text,
		Role:      RoleAssistant,
		Timestamp: g.now().UTC(),
	}, nil
}
