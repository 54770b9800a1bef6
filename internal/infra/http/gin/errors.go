package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
)

// writeError maps domain errors onto HTTP statuses. Validation failures and
// illegal transitions are 422, date conflicts 409, unknown resources 404 and
// store trouble 503; anything unrecognized stays a 500 without leaking its
// message.
func writeError(c *gin.Context, err error) {
	var inputErr *booking.InputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": inputErr.Reason, "field": inputErr.Field})
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, property.ErrInvalidSettings),
		errors.Is(err, addon.ErrInvalidAddOn):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrDatesUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "selected dates are no longer available"})
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status transition not allowed"})
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, property.ErrPropertyNotFound),
		errors.Is(err, addon.ErrAddOnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, booking.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
