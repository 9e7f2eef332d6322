package syncgateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/logger"
	"venuebook/internal/pkg/response"
	"venuebook/internal/repository"
)

type Handler struct {
	hub   *Hub
	store *repository.Store
	log   *zap.Logger
}

func NewHandler(hub *Hub, store *repository.Store, log *zap.Logger) *Handler {
	return &Handler{hub: hub, store: store, log: logger.OrNop(log)}
}

// VenueFeed godoc
// @Summary Live feed of a venue's sync events
// @Description Upgrades to a websocket that receives every SyncEvent published for the venue.
// @Tags Sync
// @Security BearerAuth
// @Param id path int true "Venue ID"
// @Router /ws/venues/{id}/feed [get]
func (h *Handler) VenueFeed(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || venueID <= 0 {
		response.FromError(c, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return
	}
	if _, err := h.store.Venues.GetByID(c.Request.Context(), venueID); err != nil {
		response.FromError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Int64("venue_id", venueID), zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, venueID)
}

// RejectedMessages godoc
// @Summary Recently rejected inbound sync messages
// @Tags Sync
// @Produce json
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} domain.RejectedSyncMessage
// @Router /internal/sync/rejected [get]
func (h *Handler) RejectedMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		response.FromError(c, &domain.ValidationError{Field: "limit", Reason: "must be between 1 and 500"})
		return
	}
	rows, err := h.store.Rejected.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// RegisterRoutes mounts the live feed on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/venues/:id/feed", h.VenueFeed)
}

// RegisterInternalRoutes mounts operator endpoints behind the internal token.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync/rejected", h.RejectedMessages)
}
