package reconcile

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
)

type Handler struct {
	runner  Runner
	sweeper *Sweeper
}

func NewHandler(runner Runner, sweeper *Sweeper) *Handler {
	return &Handler{runner: runner, sweeper: sweeper}
}

// ReconcileVenue godoc
// @Summary Reconcile one venue's unavailability index now
// @Tags Reconcile
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} Report
// @Router /venues/{id}/reconcile [post]
func (h *Handler) ReconcileVenue(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || venueID <= 0 {
		response.FromError(c, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return
	}
	report, err := h.runner.Reconcile(c.Request.Context(), venueID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ReconcileAll godoc
// @Summary Reconcile every venue
// @Tags Reconcile
// @Produce json
// @Success 200 {array} Report
// @Router /internal/reconcile [post]
func (h *Handler) ReconcileAll(c *gin.Context) {
	reports, err := h.sweeper.ReconcileAll(c.Request.Context())
	if err != nil {
		response.ErrorWithDetails(c, http.StatusInternalServerError, "RECONCILE_FAILED", err.Error(), reports)
		return
	}
	response.Success(c, http.StatusOK, reports)
}

// RegisterRoutes mounts the owner-facing trigger on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/venues/:id/reconcile", h.ReconcileVenue)
}

// RegisterInternalRoutes mounts the triggers used by the remote counterpart
// and operators, behind the internal token.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.POST("/venues/:id/reconcile", h.ReconcileVenue)
	rg.POST("/reconcile", h.ReconcileAll)
}
