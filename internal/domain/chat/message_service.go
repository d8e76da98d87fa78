package chat

import (
	"context"
	"time"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/platformerrors"
)

// MessageService handles business logic for chat messages
type MessageService struct {
	repo  MessageRepository
	chats ChatRepository
	cache MessageCache
	now   func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(repo MessageRepository, chats ChatRepository, cache MessageCache) *MessageService {
	if cache == nil {
		cache = NoopMessageCache()
	}
	return &MessageService{repo: repo, chats: chats, cache: cache, now: time.Now}
}

// UpdateMessageInput carries the fields a caller may change. Nil means unchanged.
type UpdateMessageInput struct {
	Role    *llm.Role
	Content *string
}

// AppendMessage stores a message and advances the chat's UpdatedAt atomically.
func (s *MessageService) AppendMessage(ctx context.Context, chatID string, role llm.Role, content string) (*Message, error) {
	if chatID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrChatIDRequired.Error(), ErrChatIDRequired, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d01")
	}
	role, content, err := normalizeMessage(role, content)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d02")
	}

	msg := NewMessage(chatID, role, content, s.now().UTC())
	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append message")
	}
	s.cache.Invalidate(ctx, chatID)
	return msg, nil
}

// ListMessages returns the chat's messages in conversation order. Unknown chats yield
// an empty list.
func (s *MessageService) ListMessages(ctx context.Context, chatID string) ([]*Message, error) {
	if chatID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrChatIDRequired.Error(), ErrChatIDRequired, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d03")
	}
	messages, err := s.cache.GetOrLoad(ctx, chatID, func(ctx context.Context) ([]*Message, error) {
		return s.repo.FindByChatID(ctx, chatID)
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	return messages, nil
}

// ListChatMessages is ListMessages for callers that need a missing chat reported as
// NOT_FOUND rather than as an empty list.
func (s *MessageService) ListChatMessages(ctx context.Context, chatID string) (*Chat, []*Message, error) {
	if chatID == "" {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrChatIDRequired.Error(), ErrChatIDRequired, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d04")
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get chat")
	}
	messages, err := s.ListMessages(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

// GetMessage returns the message or a NOT_FOUND error.
func (s *MessageService) GetMessage(ctx context.Context, id string) (*Message, error) {
	if id == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrMessageIDRequired.Error(), ErrMessageIDRequired, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d05")
	}
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get message")
	}
	return msg, nil
}

// UpdateMessage edits role and/or content and refreshes the message's UpdatedAt.
func (s *MessageService) UpdateMessage(ctx context.Context, id string, input UpdateMessageInput) (*Message, error) {
	if input.Role == nil && input.Content == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrNothingToUpdate.Error(), ErrNothingToUpdate, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d06")
	}
	msg, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	role, content := msg.Role, msg.Content
	if input.Role != nil {
		role = *input.Role
	}
	if input.Content != nil {
		content = *input.Content
	}
	role, content, err = normalizeMessage(role, content)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d07")
	}

	msg.Role = role
	msg.Content = content
	now := s.now().UTC()
	if now.Before(msg.CreatedAt) {
		now = msg.CreatedAt
	}
	msg.UpdatedAt = now

	if err := s.repo.Update(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update message")
	}
	s.cache.Invalidate(ctx, msg.ChatID)
	return msg, nil
}

// DeleteMessage removes one message and reports whether it existed.
func (s *MessageService) DeleteMessage(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrMessageIDRequired.Error(), ErrMessageIDRequired, "7b1d9c52-0e3a-4f6b-8d27-5a9e3c1b4d08")
	}
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return false, nil
		}
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get message")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete message")
	}
	s.cache.Invalidate(ctx, msg.ChatID)
	return deleted, nil
}
