package unavailability

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/venues/:id/occupied", h.GetOccupied)
	r.GET("/venues/:id/unavailability", h.GetUpcoming)
	r.GET("/unavailability/:stableId", h.GetByStableID)
}
