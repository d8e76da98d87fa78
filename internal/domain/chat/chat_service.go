package chat

import (
	"context"
	"time"

	"multichat/internal/utils/platformerrors"
)

// ChatService handles business logic for chats
type ChatService struct {
	repo  ChatRepository
	cache MessageCache
	now   func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(repo ChatRepository, cache MessageCache) *ChatService {
	if cache == nil {
		cache = NoopMessageCache()
	}
	return &ChatService{repo: repo, cache: cache, now: time.Now}
}

// UpdateChatInput carries the fields a caller may change. Nil means unchanged.
type UpdateChatInput struct {
	Title *string
}

// CreateChat validates the title and stores a new chat.
func (s *ChatService) CreateChat(ctx context.Context, title string) (*Chat, error) {
	normalized, err := normalizeTitle(title)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3f8e2a41-6c0d-4b7e-9a15-2d4c8b6e1f01")
	}

	chat := NewChat(normalized, s.now().UTC())
	if err := s.repo.Create(ctx, chat); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create chat")
	}
	return chat, nil
}

// GetChat returns the chat or a NOT_FOUND error.
func (s *ChatService) GetChat(ctx context.Context, id string) (*Chat, error) {
	if id == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrChatIDRequired.Error(), ErrChatIDRequired, "3f8e2a41-6c0d-4b7e-9a15-2d4c8b6e1f02")
	}
	chat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get chat")
	}
	return chat, nil
}

// ListChats returns all chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context) ([]*Chat, error) {
	chats, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list chats")
	}
	return chats, nil
}

// UpdateChat applies input and always refreshes UpdatedAt.
func (s *ChatService) UpdateChat(ctx context.Context, id string, input UpdateChatInput) (*Chat, error) {
	chat, err := s.GetChat(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3f8e2a41-6c0d-4b7e-9a15-2d4c8b6e1f03")
		}
		chat.Title = title
	}
	chat.Touch(s.now().UTC())

	if err := s.repo.Update(ctx, chat); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update chat")
	}
	return chat, nil
}

// DeleteChat removes the chat and its messages. It reports whether the chat existed.
func (s *ChatService) DeleteChat(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, ErrChatIDRequired.Error(), ErrChatIDRequired, "3f8e2a41-6c0d-4b7e-9a15-2d4c8b6e1f04")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete chat")
	}
	s.cache.Invalidate(ctx, id)
	return deleted, nil
}
