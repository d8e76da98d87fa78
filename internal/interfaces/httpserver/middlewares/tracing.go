package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request, continuing a trace from the
// incoming headers. Only 5xx responses mark the span as failed; client errors are
// recorded as the platform error type.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := routeOf(c)

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				attribute.String("request.id", RequestIDFromContext(c)),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		span.SetAttributes(chatAttributes(c)...)
		if perr := lastPlatformError(c); perr != nil {
			span.SetAttributes(attribute.String("error.type", string(perr.Type)))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
			if last := c.Errors.Last(); last != nil {
				span.RecordError(last.Err)
			}
		}
	}
}

func chatAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := c.Param("chat_id"); id != "" {
		attrs = append(attrs, attribute.String("chat.id", id))
	}
	if id := c.Param("message_id"); id != "" {
		attrs = append(attrs, attribute.String("message.id", id))
	}
	if model := c.GetString(ModelKey); model != "" {
		attrs = append(attrs, attribute.String("llm.model", model))
	}
	return attrs
}
