package subscription

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts subscription management on an authenticated group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	subs := r.Group("/subscriptions")
	{
		subs.POST("", h.Create)
		subs.GET("/:id", h.Get)
		subs.PATCH("/:id", h.Update)
		subs.DELETE("/:id", h.Delete)
	}
	r.GET("/venues/:id/subscriptions", h.ListForVenue)
}
