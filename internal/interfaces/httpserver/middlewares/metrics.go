package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"multichat/internal/infrastructure/metrics"
)

// ModelKey is set by the send route so request metrics carry the model label.
const ModelKey = "model"

// MetricsMiddleware records HTTP request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		endpoint := routeOf(c)

		model := c.GetString(ModelKey)
		if model == "" {
			model = "none"
		}

		metrics.RecordRequest(c.Request.Method, endpoint, status, model, duration)
	}
}
