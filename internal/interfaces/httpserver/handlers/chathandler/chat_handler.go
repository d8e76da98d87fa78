package chathandler

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"multichat/internal/config"
	"multichat/internal/domain/chat"
	"multichat/internal/domain/llm"
	"multichat/internal/infrastructure/logger"
	"multichat/internal/infrastructure/metrics"
	"multichat/internal/interfaces/httpserver/requests/chatreq"
	"multichat/internal/utils/platformerrors"
)

// ChatDetail is a chat together with its ordered messages.
type ChatDetail struct {
	Chat     *chat.Chat      `json:"chat"`
	Messages []*chat.Message `json:"messages"`
}

// ChatHandler coordinates the chat and message services and the LLM gateway.
type ChatHandler struct {
	chats          *chat.ChatService
	messages       *chat.MessageService
	gateway        *llm.Gateway
	persistReplies bool
}

func NewChatHandler(
	chats *chat.ChatService,
	messages *chat.MessageService,
	gateway *llm.Gateway,
	cfg *config.Config,
) *ChatHandler {
	return &ChatHandler{
		chats:          chats,
		messages:       messages,
		gateway:        gateway,
		persistReplies: cfg.PersistAssistantReplies,
	}
}

func (h *ChatHandler) CreateChat(ctx context.Context, req chatreq.CreateChatRequest) (*chat.Chat, error) {
	created, err := h.chats.CreateChat(ctx, req.Title)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to create chat")
	}
	metrics.RecordChatCreated()
	return created, nil
}

func (h *ChatHandler) ListChats(ctx context.Context) ([]*chat.Chat, error) {
	chats, err := h.chats.ListChats(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to fetch chats")
	}
	if chats == nil {
		chats = []*chat.Chat{}
	}
	return chats, nil
}

func (h *ChatHandler) GetChat(ctx context.Context, chatID string) (*ChatDetail, error) {
	found, messages, err := h.messages.ListChatMessages(ctx, chatID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to fetch chat")
	}
	return &ChatDetail{Chat: found, Messages: nonNil(messages)}, nil
}

func (h *ChatHandler) UpdateChat(ctx context.Context, chatID string, req chatreq.UpdateChatRequest) (*chat.Chat, error) {
	if req.Title == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, chat.ErrTitleRequired.Error(), chat.ErrTitleRequired, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b01")
	}
	updated, err := h.chats.UpdateChat(ctx, chatID, chat.UpdateChatInput{Title: req.Title})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to update chat")
	}
	return updated, nil
}

func (h *ChatHandler) DeleteChat(ctx context.Context, chatID string) error {
	deleted, err := h.chats.DeleteChat(ctx, chatID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to delete chat")
	}
	if !deleted {
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound, "Chat not found", chat.ErrChatNotFound, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b02")
	}
	return nil
}

func (h *ChatHandler) ListMessages(ctx context.Context, chatID string) ([]*chat.Message, error) {
	_, messages, err := h.messages.ListChatMessages(ctx, chatID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to fetch messages")
	}
	return nonNil(messages), nil
}

func (h *ChatHandler) CreateMessage(ctx context.Context, chatID string, req chatreq.CreateMessageRequest) (*chat.Message, error) {
	msg, err := h.messages.AppendMessage(ctx, chatID, llm.Role(strings.TrimSpace(req.Role)), req.Content)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to create message")
	}
	metrics.RecordMessageAppended(string(msg.Role))
	return msg, nil
}

func (h *ChatHandler) GetMessage(ctx context.Context, messageID string) (*chat.Message, error) {
	msg, err := h.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to fetch message")
	}
	return msg, nil
}

func (h *ChatHandler) UpdateMessage(ctx context.Context, messageID string, req chatreq.UpdateMessageRequest) (*chat.Message, error) {
	if err := chatreq.Validate(req); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, chat.ErrInvalidMessage.Error(), err, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b03")
	}
	input := chat.UpdateMessageInput{Content: req.Content}
	if req.Role != nil {
		role := llm.Role(*req.Role)
		input.Role = &role
	}
	msg, err := h.messages.UpdateMessage(ctx, messageID, input)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to update message")
	}
	return msg, nil
}

func (h *ChatHandler) DeleteMessage(ctx context.Context, messageID string) error {
	deleted, err := h.messages.DeleteMessage(ctx, messageID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to delete message")
	}
	if !deleted {
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound, "Message not found", chat.ErrMessageNotFound, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b04")
	}
	return nil
}

// SendMessage validates the request, dispatches it to the gateway once and, when
// replies are persisted, stores the reply as an assistant message of the chat.
func (h *ChatHandler) SendMessage(ctx context.Context, chatID string, req chatreq.SendMessageRequest) (*llm.Reply, error) {
	ctx, span := otel.Tracer("multichat/chathandler").Start(ctx, "ChatHandler.SendMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.id", chatID),
		attribute.String("llm.model", req.Model),
		attribute.Int("chat.message_count", len(req.Messages)),
	)

	if strings.TrimSpace(chatID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, chat.ErrChatIDRequired.Error(), chat.ErrChatIDRequired, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b05")
	}
	if err := chatreq.Validate(req); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "Invalid request format", err, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b06")
	}

	if h.persistReplies {
		if _, err := h.chats.GetChat(ctx, chatID); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to fetch chat")
		}
	}

	reply, err := h.gateway.Generate(ctx, req.Model, req.Turns())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, gatewayFailure(ctx, err)
	}

	if !h.persistReplies {
		return reply, nil
	}

	stored, err := h.messages.AppendMessage(ctx, chatID, llm.RoleAssistant, reply.Content)
	if err != nil {
		log := logger.GetLogger()
		log.Error().
			Err(err).
			Str("chat_id", chatID).
			Str("request_id", platformerrors.RequestIDFromContext(ctx)).
			Msg("failed to persist assistant reply")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Failed to store reply")
	}
	metrics.RecordMessageAppended(string(stored.Role))

	return &llm.Reply{
		ID:        stored.ID,
		Content:   stored.Content,
		Role:      llm.RoleAssistant,
		Timestamp: stored.CreatedAt,
	}, nil
}

// gatewayFailure maps a gateway error kind to a platform error keeping the gateway message.
func gatewayFailure(ctx context.Context, err error) error {
	gwErr, ok := llm.AsGatewayError(err)
	if !ok {
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "Unknown error occurred")
	}

	errorType := platformerrors.ErrorTypeExternal
	switch gwErr.Kind {
	case llm.KindInvalidRequest, llm.KindUnsupportedModel:
		errorType = platformerrors.ErrorTypeValidation
	case llm.KindMissingCredential:
		errorType = platformerrors.ErrorTypeUnavailable
	}

	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, errorType, gwErr.Message, gwErr, "c41a7e02-5d93-4b8f-9e16-3a0c2f7d8b07", map[string]any{
		"gateway_error_kind": string(gwErr.Kind),
		"model":              gwErr.Model,
	})
}

func nonNil(messages []*chat.Message) []*chat.Message {
	if messages == nil {
		return []*chat.Message{}
	}
	return messages
}
