package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"multichat/internal/infrastructure/logger"
	"multichat/internal/utils/platformerrors"
)

// Response is the success envelope of every JSON endpoint.
type Response[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"` // UUID from PlatformError
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// DeletedResponse is the payload of a successful delete.
type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// OK writes data inside the success envelope.
func OK[T any](reqCtx *gin.Context, data T) {
	reqCtx.JSON(http.StatusOK, Response[T]{Success: true, Data: data})
}

// Created writes data inside the success envelope with 201.
func Created[T any](reqCtx *gin.Context, data T) {
	reqCtx.JSON(http.StatusCreated, Response[T]{Success: true, Data: data})
}

// HandleError handles domain errors and returns appropriate HTTP responses. The
// innermost platform error supplies the caller facing message.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())
		platformerrors.LogError(logger.GetLogger(), domainErr)
		_ = reqCtx.Error(domainErr)

		errorMessage := rootMessage(domainErr)
		if errorMessage == "" || hidesDetail(domainErr.Type) {
			errorMessage = message
		}

		requestID := domainErr.RequestID
		if requestID == "" {
			requestID = platformerrors.RequestIDFromContext(reqCtx.Request.Context())
		}

		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:      domainErr.UUID,
			Error:     errorMessage,
			RequestID: requestID,
		})
		return
	}

	log := logger.GetLogger()
	log.Error().Err(err).Str("request_id", platformerrors.RequestIDFromContext(reqCtx.Request.Context())).Msg(message)
	_ = reqCtx.Error(err)
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:     message,
		RequestID: platformerrors.RequestIDFromContext(reqCtx.Request.Context()),
	})
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)
	HandleError(reqCtx, err, message)
}

func rootMessage(err *platformerrors.PlatformError) string {
	message := err.Message
	var next error = err.Err
	for next != nil {
		var inner *platformerrors.PlatformError
		if !errors.As(next, &inner) {
			break
		}
		if inner.Message != "" {
			message = inner.Message
		}
		next = inner.Err
	}
	return message
}

// hidesDetail reports types whose messages describe internals.
func hidesDetail(errorType platformerrors.ErrorType) bool {
	return errorType == platformerrors.ErrorTypeInternal || errorType == platformerrors.ErrorTypeDatabaseError
}
