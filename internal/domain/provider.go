package domain

import (
	"github.com/google/wire"

	"multichat/internal/domain/chat"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	chat.NewChatService,
	chat.NewMessageService,
)
