package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/platformerrors"
)

func TestMessageService_AppendMessage(t *testing.T) {
	chats, messages, _, cache, clk := newServices(t)
	ctx := context.Background()
	c, err := chats.CreateChat(ctx, "Trip planning")
	require.NoError(t, err)

	clk.advance(time.Minute)
	msg, err := messages.AppendMessage(ctx, c.ID, llm.RoleUser, "  Where should I go in spring?  ")
	require.NoError(t, err)

	assert.Equal(t, "Where should I go in spring?", msg.Content)
	assert.Equal(t, c.ID, msg.ChatID)
	assert.Equal(t, clk.t, msg.CreatedAt)
	assert.Contains(t, cache.invalidated, c.ID)

	touched, err := chats.GetChat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.CreatedAt, touched.UpdatedAt)
}

func TestMessageService_AppendMessage_Validation(t *testing.T) {
	chats, messages, store, _, _ := newServices(t)
	ctx := context.Background()
	c, err := chats.CreateChat(ctx, "chat")
	require.NoError(t, err)

	tests := []struct {
		name    string
		chatID  string
		role    llm.Role
		content string
		want    error
	}{
		{name: "missing chat id", chatID: "", role: llm.RoleUser, content: "x", want: ErrChatIDRequired},
		{name: "bad role", chatID: c.ID, role: "tool", content: "x", want: ErrInvalidMessage},
		{name: "blank content", chatID: c.ID, role: llm.RoleUser, content: " \n ", want: ErrInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := messages.AppendMessage(ctx, tt.chatID, tt.role, tt.content)

			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, store.messages)
}

func TestMessageService_AppendMessage_ChatNotFound(t *testing.T) {
	_, messages, store, _, _ := newServices(t)

	_, err := messages.AppendMessage(context.Background(), "chat_missing", llm.RoleUser, "hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChatNotFound))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Empty(t, store.messages)
}

func TestMessageService_ListMessages_UsesCache(t *testing.T) {
	chats, messages, store, _, _ := newServices(t)
	ctx := context.Background()
	c, err := chats.CreateChat(ctx, "chat")
	require.NoError(t, err)
	_, err = messages.AppendMessage(ctx, c.ID, llm.RoleUser, "one")
	require.NoError(t, err)

	first, err := messages.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	second, err := messages.ListMessages(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listHits)

	_, err = messages.AppendMessage(ctx, c.ID, llm.RoleAssistant, "two")
	require.NoError(t, err)
	third, err := messages.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, store.listHits)
}

func TestMessageService_ListChatMessages(t *testing.T) {
	chats, messages, _, _, _ := newServices(t)
	ctx := context.Background()

	_, _, err := messages.ListChatMessages(ctx, "chat_missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	c, err := chats.CreateChat(ctx, "chat")
	require.NoError(t, err)
	_, err = messages.AppendMessage(ctx, c.ID, llm.RoleSystem, "be brief")
	require.NoError(t, err)

	got, list, err := messages.ListChatMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, []llm.Turn{{Role: llm.RoleSystem, Content: "be brief"}}, Turns(list))
}

func TestMessageService_UpdateMessage(t *testing.T) {
	chats, messages, _, cache, clk := newServices(t)
	ctx := context.Background()
	c, err := chats.CreateChat(ctx, "chat")
	require.NoError(t, err)
	msg, err := messages.AppendMessage(ctx, c.ID, llm.RoleUser, "draft")
	require.NoError(t, err)
	chatBefore, err := chats.GetChat(ctx, c.ID)
	require.NoError(t, err)

	clk.advance(time.Minute)
	updated, err := messages.UpdateMessage(ctx, msg.ID, UpdateMessageInput{Content: ptr(" final ")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, llm.RoleUser, updated.Role)
	assert.Equal(t, clk.t, updated.UpdatedAt)
	assert.Equal(t, msg.CreatedAt, updated.CreatedAt)
	assert.Contains(t, cache.invalidated, c.ID)

	chatAfter, err := chats.GetChat(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, chatBefore.UpdatedAt, chatAfter.UpdatedAt)

	_, err = messages.UpdateMessage(ctx, msg.ID, UpdateMessageInput{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = messages.UpdateMessage(ctx, msg.ID, UpdateMessageInput{Role: ptr(llm.Role("robot"))})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = messages.UpdateMessage(ctx, "msg_missing", UpdateMessageInput{Content: ptr("x")})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestMessageService_DeleteMessage(t *testing.T) {
	chats, messages, _, cache, _ := newServices(t)
	ctx := context.Background()
	c, err := chats.CreateChat(ctx, "chat")
	require.NoError(t, err)
	msg, err := messages.AppendMessage(ctx, c.ID, llm.RoleUser, "bye")
	require.NoError(t, err)

	deleted, err := messages.DeleteMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Contains(t, cache.invalidated, c.ID)

	deleted, err = messages.DeleteMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = messages.GetMessage(ctx, msg.ID)
	assert.True(t, errors.Is(err, ErrMessageNotFound))
}
