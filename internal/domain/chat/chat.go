package chat

import (
	"context"
	"errors"
	"time"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/idgen"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
)

// ===============================================
// Chat
// ===============================================

type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewChat(title string, now time.Time) *Chat {
	return &Chat{
		ID:        idgen.NewAt(idgen.PrefixChat, now),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch advances UpdatedAt to now, never below CreatedAt.
func (c *Chat) Touch(now time.Time) {
	if now.Before(c.CreatedAt) {
		now = c.CreatedAt
	}
	c.UpdatedAt = now
}

// ChatRepository persists chats. Missing rows are reported as NOT_FOUND platform errors
// wrapping ErrChatNotFound.
type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	FindByID(ctx context.Context, id string) (*Chat, error)
	// FindAll returns every chat, most recently updated first.
	FindAll(ctx context.Context) ([]*Chat, error)
	Update(ctx context.Context, chat *Chat) error
	// Delete removes the chat and all of its messages and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// ===============================================
// Message
// ===============================================

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMessage(chatID string, role llm.Role, content string, now time.Time) *Message {
	return &Message{
		ID:        idgen.NewAt(idgen.PrefixMessage, now),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Turn projects the message onto the gateway's transport type.
func (m *Message) Turn() llm.Turn {
	return llm.Turn{Role: m.Role, Content: m.Content}
}

// Turns projects messages in order.
func Turns(messages []*Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, m.Turn())
	}
	return turns
}

// MessageRepository persists messages.
type MessageRepository interface {
	// Append stores msg and sets the owning chat's updated_at to msg.CreatedAt in one
	// transaction. Fails with ErrChatNotFound when the chat does not exist.
	Append(ctx context.Context, msg *Message) error
	// FindByChatID returns the chat's messages by created_at, then insertion order.
	FindByChatID(ctx context.Context, chatID string) ([]*Message, error)
	FindByID(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, msg *Message) error
	Delete(ctx context.Context, id string) (bool, error)
}

// MessageCache is a read-through cache of per-chat message lists.
type MessageCache interface {
	GetOrLoad(ctx context.Context, chatID string, load func(ctx context.Context) ([]*Message, error)) ([]*Message, error)
	Invalidate(ctx context.Context, chatID string)
}

type noopMessageCache struct{}

// NoopMessageCache always calls the loader.
func NoopMessageCache() MessageCache { return noopMessageCache{} }

func (noopMessageCache) GetOrLoad(ctx context.Context, _ string, load func(ctx context.Context) ([]*Message, error)) ([]*Message, error) {
	return load(ctx)
}

func (noopMessageCache) Invalidate(context.Context, string) {}
