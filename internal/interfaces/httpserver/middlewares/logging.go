package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"multichat/internal/utils/platformerrors"
)

const unmatchedRoute = "unmatched"

// Probe routes are logged at debug level.
var probeRoutes = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// LoggingMiddleware writes one access line per request, keyed by route template.
// Chat and message ids, the requested model and the platform error code are added
// when the request carried them.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		event := accessEvent(&logger, route, status)

		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			event = event.Str("trace_id", sc.TraceID().String())
		}
		if requestID := RequestIDFromContext(c); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		for _, param := range []string{"chat_id", "message_id"} {
			if value := c.Param(param); value != "" {
				event = event.Str(param, value)
			}
		}
		if model := c.GetString(ModelKey); model != "" {
			event = event.Str("model", model)
		}
		if perr := lastPlatformError(c); perr != nil {
			event = event.Str("error_code", string(perr.Type)).Str("error_uuid", perr.UUID)
		}

		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

func accessEvent(logger *zerolog.Logger, route string, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	}
	if _, ok := probeRoutes[route]; ok {
		return logger.Debug()
	}
	return logger.Info()
}

// routeOf returns the matched route template, never the raw path.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

// lastPlatformError returns the most recent platform error attached by a handler.
func lastPlatformError(c *gin.Context) *platformerrors.PlatformError {
	for i := len(c.Errors) - 1; i >= 0; i-- {
		if perr := platformerrors.GetPlatformError(c.Errors[i].Err); perr != nil {
			return perr
		}
	}
	return nil
}
