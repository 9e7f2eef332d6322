package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"venuebook/internal/pkg/jwt"
	"venuebook/internal/pkg/response"
)

// JWTAuth requires a valid bearer token and stores owner_id and role in the
// gin context.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, code, msg := bearerToken(c)
		if code != "" {
			response.Error(c, http.StatusUnauthorized, code, msg)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("owner_id", claims.OwnerID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Websocket upgrades cannot set
// headers from a browser, so they may pass ?access_token= instead.
func bearerToken(c *gin.Context) (token, code, message string) {
	h := c.GetHeader("Authorization")
	if h == "" && c.IsWebsocket() {
		if q := strings.TrimSpace(c.Query("access_token")); q != "" {
			return q, "", ""
		}
	}
	if h == "" {
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "INVALID_AUTH_FORMAT", "Empty token"
	}
	return token, "", ""
}
