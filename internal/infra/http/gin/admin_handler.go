package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
	"github.com/yuzpew2/casadbendang/internal/app/catalog"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

// AdminHandler serves the dashboard: booking lifecycle management,
// maintenance blocks, property settings and the add-on catalog.
type AdminHandler struct {
	Bookings  *bookings.Service
	Catalog   *catalog.Service
	Reclaimer *bookings.Reclaimer
}

func (h AdminHandler) ListBookings(c *gin.Context) {
	status := booking.Status(c.Query("status"))
	list, err := h.Bookings.List(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookingsJSON(list)})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.Bookings.UpdateStatus(c.Request.Context(), booking.BookingID(c.Param("bookingID")), booking.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func (h AdminHandler) DeleteBooking(c *gin.Context) {
	if err := h.Bookings.Delete(c.Request.Context(), booking.BookingID(c.Param("bookingID"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type maintenanceBlockRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

func (h AdminHandler) CreateMaintenanceBlock(c *gin.Context) {
	var req maintenanceBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "start_date must be YYYY-MM-DD", "field": "start_date"})
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "end_date must be YYYY-MM-DD", "field": "end_date"})
		return
	}
	b, err := h.Bookings.CreateMaintenanceBlock(c.Request.Context(), c.Param("id"), start, end, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingJSON(b))
}

type settingsRequest struct {
	Name                string              `json:"name"`
	TierPrices          map[int]money.Money `json:"tier_prices"`
	MaxGuests           int                 `json:"max_guests"`
	PendingTimeoutHours int                 `json:"pending_timeout_hours"`
	WhatsAppNumber      string              `json:"whatsapp_number"`
	Description         string              `json:"description"`
}

func (h AdminHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prop, err := h.Catalog.UpdateSettings(c.Request.Context(), c.Param("id"), property.Settings{
		Name:                req.Name,
		TierPrices:          req.TierPrices,
		MaxGuests:           req.MaxGuests,
		PendingTimeoutHours: req.PendingTimeoutHours,
		WhatsAppNumber:      req.WhatsAppNumber,
		Description:         req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, propertyJSON(prop))
}

func (h AdminHandler) ListAddOns(c *gin.Context) {
	list, err := h.Catalog.ListAddOns(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"add_ons": addOnsJSON(list)})
}

type createAddOnRequest struct {
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

func (h AdminHandler) CreateAddOn(c *gin.Context) {
	var req createAddOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.Catalog.CreateAddOn(c.Request.Context(), c.Param("id"), req.Name, req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addOnJSON(a))
}

type updateAddOnRequest struct {
	Name   *string      `json:"name"`
	Price  *money.Money `json:"price"`
	Active *bool        `json:"active"`
}

func (h AdminHandler) UpdateAddOn(c *gin.Context) {
	var req updateAddOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.Catalog.UpdateAddOn(c.Request.Context(), c.Param("addonID"), catalog.AddOnUpdate{
		Name:   req.Name,
		Price:  req.Price,
		Active: req.Active,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, addOnJSON(a))
}

func (h AdminHandler) DeleteAddOn(c *gin.Context) {
	if err := h.Catalog.DeleteAddOn(c.Request.Context(), c.Param("addonID")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TriggerSweep runs the expiry sweep for one property on demand, so the
// dashboard shows fresh statuses without waiting for the scheduled run.
func (h AdminHandler) TriggerSweep(c *gin.Context) {
	result, err := h.Reclaimer.Sweep(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
