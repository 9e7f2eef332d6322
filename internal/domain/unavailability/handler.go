package unavailability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func queryDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: name, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

func venueID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// GetOccupied godoc
// @Summary Occupied slots of a venue
// @Tags Unavailability
// @Security BearerAuth
// @Produce json
// @Param id path int true "Venue ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {array} domain.UnavailabilityEntry
// @Router /venues/{id}/occupied [get]
func (h *Handler) GetOccupied(c *gin.Context) {
	id, err := venueID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	from, err := queryDate(c, "from")
	if err != nil {
		response.FromError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.FromError(c, err)
		return
	}

	entries, err := h.service.Occupied(c.Request.Context(), id, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// GetUpcoming godoc
// @Summary Upcoming index entries of a venue
// @Tags Unavailability
// @Security BearerAuth
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {array} domain.UnavailabilityEntry
// @Router /venues/{id}/unavailability [get]
func (h *Handler) GetUpcoming(c *gin.Context) {
	id, err := venueID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	entries, err := h.service.Upcoming(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// GetByStableID godoc
// @Summary Look up an index entry by its stable id
// @Tags Unavailability
// @Security BearerAuth
// @Produce json
// @Param stableId path string true "Stable ID"
// @Success 200 {object} domain.UnavailabilityEntry
// @Router /unavailability/{stableId} [get]
func (h *Handler) GetByStableID(c *gin.Context) {
	entry, err := h.service.GetByStableID(c.Request.Context(), c.Param("stableId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}
