package chatreq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"multichat/internal/domain/llm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateChatRequest accepts either JSON or form bodies.
type CreateChatRequest struct {
	Title string `json:"title" form:"title"`
}

// UpdateChatRequest carries the mutable chat fields.
type UpdateChatRequest struct {
	Title *string `json:"title" form:"title"`
}

type CreateMessageRequest struct {
	Role    string `json:"role" form:"role"`
	Content string `json:"content" form:"content"`
}

type UpdateMessageRequest struct {
	Role    *string `json:"role" form:"role" validate:"omitempty,oneof=user assistant system"`
	Content *string `json:"content" form:"content"`
}

// TurnRequest is one history entry of a send request.
type TurnRequest struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// SendMessageRequest is the body of POST /v1/chats/:chat_id/send.
type SendMessageRequest struct {
	Model    string        `json:"model" validate:"required"`
	Messages []TurnRequest `json:"messages" validate:"required,min=1,dive"`
}

// Validate runs struct tag validation and flattens the first failure into a message.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s failed on %q", strings.ToLower(fe.Namespace()), fe.Tag())
		}
		return err
	}
	return nil
}

// Turns converts the request history to gateway turns in order.
func (r SendMessageRequest) Turns() []llm.Turn {
	turns := make([]llm.Turn, len(r.Messages))
	for i, m := range r.Messages {
		turns[i] = llm.Turn{Role: llm.Role(m.Role), Content: m.Content}
	}
	return turns
}
