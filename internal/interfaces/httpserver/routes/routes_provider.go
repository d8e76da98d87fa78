package routes

import (
	"github.com/google/wire"

	"multichat/internal/interfaces/httpserver/handlers/chathandler"
	v1 "multichat/internal/interfaces/httpserver/routes/v1"
	"multichat/internal/interfaces/httpserver/routes/v1/chat"
)

var RouteProvider = wire.NewSet(
	// Handlers
	chathandler.NewChatHandler,

	// Routes
	v1.NewV1Route,
	chat.NewChatRoute,
)
