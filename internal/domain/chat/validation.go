package chat

import (
	"errors"
	"strings"
	"unicode/utf8"

	"multichat/internal/domain/llm"
)

const MaxTitleLength = 255

var (
	ErrTitleRequired     = errors.New("Chat title is required")
	ErrTitleTooLong      = errors.New("Chat title must be at most 255 characters")
	ErrInvalidMessage    = errors.New("Valid role and content are required")
	ErrChatIDRequired    = errors.New("Chat ID is required")
	ErrMessageIDRequired = errors.New("Message ID is required")
	ErrNothingToUpdate   = errors.New("No fields to update")
)

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func normalizeMessage(role llm.Role, raw string) (llm.Role, string, error) {
	content := strings.TrimSpace(raw)
	if !role.Valid() || content == "" {
		return "", "", ErrInvalidMessage
	}
	return role, content, nil
}
