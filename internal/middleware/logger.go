package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venuebook/internal/pkg/response"
)

// ErrorLogger logs failed requests and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logRequest(log, c, start, "panic", fmt.Sprint(recovered), zap.ByteString("stack", debug.Stack()))
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				c.Abort()
				return
			}

			for _, err := range c.Errors {
				logRequest(log, c, start, fmt.Sprintf("%v", err.Type), err.Error())
			}
			if len(c.Errors) == 0 && c.Writer.Status() >= http.StatusInternalServerError {
				logRequest(log, c, start, "http_error", http.StatusText(c.Writer.Status()))
			}
		}()

		c.Next()
	}
}

func logRequest(log *zap.Logger, c *gin.Context, start time.Time, errType, message string, extra ...zap.Field) {
	fields := []zap.Field{
		zap.String("type", errType),
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("owner_id", c.GetInt64("owner_id")),
		zap.String("request_id", requestID(c)),
		zap.Duration("latency", time.Since(start)),
		zap.String("error", message),
	}
	log.Error("request failed", append(fields, extra...)...)
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-Id")
}
