package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/pkg/response"
)

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// RequireRole lets the request through when the token's role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}
