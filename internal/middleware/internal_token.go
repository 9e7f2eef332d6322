package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venuebook/internal/pkg/response"
)

// InternalTokenAuth protects machine-to-machine endpoints with a static bearer
// token. An empty expected token disables the endpoints.
func InternalTokenAuth(expected string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			logAuthFailure(log, c, http.StatusForbidden, "token_not_configured")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Internal endpoints are disabled")
			c.Abort()
			return
		}

		token, code, msg := bearerToken(c)
		if code != "" {
			logAuthFailure(log, c, http.StatusUnauthorized, code)
			response.Error(c, http.StatusUnauthorized, code, msg)
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			logAuthFailure(log, c, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logAuthFailure(log *zap.Logger, c *gin.Context, status int, reason string) {
	log.Warn("internal auth rejected",
		zap.Int("status", status),
		zap.String("request_id", requestID(c)),
		zap.String("client_ip", c.ClientIP()),
		zap.String("reason", reason),
	)
}
