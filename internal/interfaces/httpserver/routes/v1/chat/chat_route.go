package chat

import (
	"github.com/gin-gonic/gin"

	"multichat/internal/interfaces/httpserver/handlers/chathandler"
	"multichat/internal/interfaces/httpserver/middlewares"
	"multichat/internal/interfaces/httpserver/requests/chatreq"
	"multichat/internal/interfaces/httpserver/responses"
	"multichat/internal/utils/idgen"
	"multichat/internal/utils/platformerrors"
)

type ChatRoute struct {
	handler *chathandler.ChatHandler
}

func NewChatRoute(handler *chathandler.ChatHandler) *ChatRoute {
	return &ChatRoute{handler: handler}
}

func (route *ChatRoute) RegisterRouter(router gin.IRouter) {
	chats := router.Group("/chats")
	chats.GET("", route.listChats)
	chats.POST("", route.createChat)
	chats.GET("/:chat_id", route.getChat)
	chats.PUT("/:chat_id", route.updateChat)
	chats.PATCH("/:chat_id", route.updateChat)
	chats.DELETE("/:chat_id", route.deleteChat)
	chats.GET("/:chat_id/messages", route.listMessages)
	chats.POST("/:chat_id/messages", route.createMessage)
	chats.POST("/:chat_id/send", route.sendMessage)

	messages := router.Group("/messages")
	messages.GET("/:message_id", route.getMessage)
	messages.PUT("/:message_id", route.updateMessage)
	messages.PATCH("/:message_id", route.updateMessage)
	messages.DELETE("/:message_id", route.deleteMessage)
}

// chatID returns the chat_id path parameter. IDs this service could not have issued
// are answered with 404 before reaching the store.
func chatID(reqCtx *gin.Context) (string, bool) {
	id := reqCtx.Param("chat_id")
	if !idgen.IsValid(idgen.PrefixChat, id) {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "Chat not found", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f06")
		return "", false
	}
	return id, true
}

func messageID(reqCtx *gin.Context) (string, bool) {
	id := reqCtx.Param("message_id")
	if !idgen.IsValid(idgen.PrefixMessage, id) {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "Message not found", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f07")
		return "", false
	}
	return id, true
}

func (route *ChatRoute) listChats(reqCtx *gin.Context) {
	chats, err := route.handler.ListChats(reqCtx.Request.Context())
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch chats")
		return
	}
	responses.OK(reqCtx, chats)
}

func (route *ChatRoute) createChat(reqCtx *gin.Context) {
	var req chatreq.CreateChatRequest
	if err := reqCtx.ShouldBind(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request format", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f01")
		return
	}
	created, err := route.handler.CreateChat(reqCtx.Request.Context(), req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to create chat")
		return
	}
	responses.Created(reqCtx, created)
}

func (route *ChatRoute) getChat(reqCtx *gin.Context) {
	id, ok := chatID(reqCtx)
	if !ok {
		return
	}
	detail, err := route.handler.GetChat(reqCtx.Request.Context(), id)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch chat")
		return
	}
	responses.OK(reqCtx, detail)
}

func (route *ChatRoute) updateChat(reqCtx *gin.Context) {
	id, ok := chatID(reqCtx)
	if !ok {
		return
	}
	var req chatreq.UpdateChatRequest
	if err := reqCtx.ShouldBind(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request format", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f02")
		return
	}
	updated, err := route.handler.UpdateChat(reqCtx.Request.Context(), id, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to update chat")
		return
	}
	responses.OK(reqCtx, updated)
}

func (route *ChatRoute) deleteChat(reqCtx *gin.Context) {
	id, ok := chatID(reqCtx)
	if !ok {
		return
	}
	if err := route.handler.DeleteChat(reqCtx.Request.Context(), id); err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete chat")
		return
	}
	responses.OK(reqCtx, responses.DeletedResponse{Deleted: true})
}

func (route *ChatRoute) listMessages(reqCtx *gin.Context) {
	id, ok := chatID(reqCtx)
	if !ok {
		return
	}
	messages, err := route.handler.ListMessages(reqCtx.Request.Context(), id)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch messages")
		return
	}
	responses.OK(reqCtx, messages)
}

func (route *ChatRoute) createMessage(reqCtx *gin.Context) {
	id, ok := chatID(reqCtx)
	if !ok {
		return
	}
	var req chatreq.CreateMessageRequest
	if err := reqCtx.ShouldBind(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Valid role and content are required", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f03")
		return
	}
	msg, err := route.handler.CreateMessage(reqCtx.Request.Context(), id, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to create message")
		return
	}
	responses.Created(reqCtx, msg)
}

func (route *ChatRoute) sendMessage(reqCtx *gin.Context) {
	var req chatreq.SendMessageRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request format", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f04")
		return
	}
	reqCtx.Set(middlewares.ModelKey, req.Model)

	reply, err := route.handler.SendMessage(reqCtx.Request.Context(), reqCtx.Param("chat_id"), req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Unknown error occurred")
		return
	}
	responses.OK(reqCtx, reply)
}

func (route *ChatRoute) getMessage(reqCtx *gin.Context) {
	id, ok := messageID(reqCtx)
	if !ok {
		return
	}
	msg, err := route.handler.GetMessage(reqCtx.Request.Context(), id)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch message")
		return
	}
	responses.OK(reqCtx, msg)
}

func (route *ChatRoute) updateMessage(reqCtx *gin.Context) {
	id, ok := messageID(reqCtx)
	if !ok {
		return
	}
	var req chatreq.UpdateMessageRequest
	if err := reqCtx.ShouldBind(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request format", "e6b0f3a1-2c47-4d85-b9e3-71a4c0d25f05")
		return
	}
	msg, err := route.handler.UpdateMessage(reqCtx.Request.Context(), id, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to update message")
		return
	}
	responses.OK(reqCtx, msg)
}

func (route *ChatRoute) deleteMessage(reqCtx *gin.Context) {
	id, ok := messageID(reqCtx)
	if !ok {
		return
	}
	if err := route.handler.DeleteMessage(reqCtx.Request.Context(), id); err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete message")
		return
	}
	responses.OK(reqCtx, responses.DeletedResponse{Deleted: true})
}
