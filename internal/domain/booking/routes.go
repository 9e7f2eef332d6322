package booking

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id", h.UpdateBooking)
	rg.DELETE("/bookings/:id", h.DeleteBooking)

	rg.GET("/venues/:id/bookings", h.GetVenueBookings)
}
