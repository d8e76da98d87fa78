package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"multichat/internal/utils/platformerrors"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	var fromCtx, fromGin string
	router.GET("/", func(c *gin.Context) {
		fromCtx = platformerrors.RequestIDFromContext(c.Request.Context())
		fromGin = RequestIDFromContext(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		assert.Equal(t, w.Header().Get("X-Request-Id"), fromCtx)
		assert.Equal(t, fromCtx, fromGin)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
		assert.Equal(t, "abc-123", fromCtx)
	})
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", []string{"*"}, "http://example.com", http.MethodGet, "*", http.StatusOK},
		{"listed origin", []string{"http://localhost:3000"}, "http://localhost:3000", http.MethodGet, "http://localhost:3000", http.StatusOK},
		{"unlisted origin", []string{"http://localhost:3000"}, "http://evil.test", http.MethodGet, "", http.StatusOK},
		{"preflight", []string{"*"}, "http://example.com", http.MethodOptions, "*", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowed))
			router.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), LoggingMiddleware(zerolog.New(&buf).Level(zerolog.InfoLevel)))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/v1/chats/:chat_id", func(c *gin.Context) {
		c.Set(ModelKey, "gpt-4")
		_ = c.Error(platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute,
			platformerrors.ErrorTypeNotFound, "Chat not found", nil, "a1b2c3d4-0000-4000-8000-000000000001"))
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String(), "probes stay below info")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/chats/chat_42?secret=x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/v1/chats/:chat_id", line["route"])
	assert.Equal(t, "chat_42", line["chat_id"])
	assert.Equal(t, "gpt-4", line["model"])
	assert.Equal(t, "NOT_FOUND", line["error_code"])
	assert.Equal(t, "a1b2c3d4-0000-4000-8000-000000000001", line["error_uuid"])
	assert.EqualValues(t, http.StatusNotFound, line["status"])
	assert.NotEmpty(t, line["request_id"])
	assert.NotContains(t, buf.String(), "secret")
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	router := gin.New()
	router.Use(RequestID(), TracingMiddleware("multichat-test"))
	router.POST("/v1/chats/:chat_id/send", func(c *gin.Context) {
		c.Set(ModelKey, "claude-3")
		_ = c.Error(errors.New("upstream failed"))
		c.Status(http.StatusBadGateway)
	})
	router.GET("/v1/messages/:message_id", func(c *gin.Context) {
		_ = c.Error(platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute,
			platformerrors.ErrorTypeNotFound, "Message not found", nil, ""))
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/chats/chat_7/send", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/messages/msg_9", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	send := spans[0]
	assert.Equal(t, "POST /v1/chats/:chat_id/send", send.Name())
	assert.Equal(t, codes.Error, send.Status().Code)
	sendAttrs := attributeMap(send.Attributes())
	assert.Equal(t, "chat_7", sendAttrs["chat.id"])
	assert.Equal(t, "claude-3", sendAttrs["llm.model"])

	get := spans[1]
	assert.Equal(t, "GET /v1/messages/:message_id", get.Name())
	assert.NotEqual(t, codes.Error, get.Status().Code, "client errors do not fail the span")
	getAttrs := attributeMap(get.Attributes())
	assert.Equal(t, "msg_9", getAttrs["message.id"])
	assert.Equal(t, "NOT_FOUND", getAttrs["error.type"])
}

func attributeMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
