package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/domain"
)

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the client-facing envelope for a service error. Unknown
// errors become a generic 500 and are attached to the gin context for logging.
func FromError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		outOfHours *domain.OutOfHoursError
	)
	switch {
	case errors.As(err, &validation):
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), gin.H{"field": validation.Field})
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.As(err, &conflict):
		ErrorWithDetails(c, http.StatusConflict, "CONFLICT", err.Error(), gin.H{
			"date":   conflict.Date.Format(domain.DateLayout),
			"start":  conflict.Start.String(),
			"end":    conflict.End.String(),
			"source": conflict.Source,
		})
	case errors.As(err, &outOfHours):
		ErrorWithDetails(c, http.StatusUnprocessableEntity, "OUT_OF_HOURS", err.Error(), gin.H{
			"open":  outOfHours.Open.String(),
			"close": outOfHours.Close.String(),
		})
	case errors.Is(err, domain.ErrRange):
		Error(c, http.StatusUnprocessableEntity, "RANGE_ERROR", err.Error())
	case errors.Is(err, domain.ErrPast):
		Error(c, http.StatusUnprocessableEntity, "PAST_SLOT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
