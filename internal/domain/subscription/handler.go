package subscription

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
	"venuebook/internal/pkg/validator"
)

// Handler exposes subscription management to venue owners.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary Create a weekly subscription
// @Description Generates every dated slot from the weekly templates. Rejected as a whole on any conflict.
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateSubscriptionRequest true "Subscription and weekly templates"
// @Success 201 {object} domain.Subscription
// @Router /subscriptions [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
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

	sub, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sub)
}

// Get godoc
// @Summary Get a subscription with its slots
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} domain.Subscription
// @Router /subscriptions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// Update godoc
// @Summary Patch a subscription
// @Description Passing slots replaces every slot. Moving start_date re-dates the existing slots.
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param body body UpdateSubscriptionRequest true "Fields to change"
// @Success 200 {object} domain.Subscription
// @Router /subscriptions/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateSubscriptionRequest
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

	sub, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// Delete godoc
// @Summary Delete a subscription and its slots
// @Tags Subscriptions
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 204
// @Router /subscriptions/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListForVenue godoc
// @Summary List a venue's subscriptions
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {array} domain.Subscription
// @Router /venues/{id}/subscriptions [get]
func (h *Handler) ListForVenue(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || venueID <= 0 {
		response.FromError(c, &domain.ValidationError{Field: "id", Reason: "invalid venue id"})
		return
	}
	subs, err := h.service.ListForVenue(c.Request.Context(), venueID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, subs)
}
