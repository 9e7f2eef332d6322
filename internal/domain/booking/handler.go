package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
	"venuebook/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.FromError(c, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// CreateBooking godoc
// @Summary Book a venue once
// @Description End time defaults to one hour after start. Rejected when outside opening hours, in the past or overlapping.
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateBookingRequest true "Booking"
// @Success 201 {object} domain.OneOffBooking
// @Failure 409 {object} map[string]interface{}
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.FromError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.FromError(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// GetBooking godoc
// @Summary Get a booking
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} domain.OneOffBooking
// @Router /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// UpdateBooking godoc
// @Summary Move or edit a booking
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param body body UpdateBookingRequest true "Fields to change"
// @Success 200 {object} domain.OneOffBooking
// @Router /bookings/{id} [patch]
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.FromError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		response.FromError(c, err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// DeleteBooking godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 204
// @Router /bookings/{id} [delete]
func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetVenueBookings godoc
// @Summary List a venue's one-off bookings
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param id path int true "Venue ID"
// @Param date query string false "Only this day (YYYY-MM-DD)"
// @Success 200 {array} domain.OneOffBooking
// @Router /venues/{id}/bookings [get]
func (h *Handler) GetVenueBookings(c *gin.Context) {
	venueID, ok := pathID(c)
	if !ok {
		return
	}
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		date = &d
	}

	bookings, err := h.service.ListForVenue(c.Request.Context(), venueID, date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}
