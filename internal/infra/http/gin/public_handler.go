package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
	"github.com/yuzpew2/casadbendang/internal/app/catalog"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

// PublicHandler serves the guest-facing surface: property details, the
// availability calendar, quote previews and booking requests.
type PublicHandler struct {
	Bookings *bookings.Service
	Catalog  *catalog.Service
}

// Property returns the deployment's primary property with its active add-ons.
func (h PublicHandler) Property(c *gin.Context) {
	prop, err := h.Catalog.FirstProperty(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	addOns, err := h.Catalog.ListAddOns(c.Request.Context(), prop.ID, true)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := propertyJSON(prop)
	resp["add_ons"] = addOnsJSON(addOns)
	c.JSON(http.StatusOK, resp)
}

func (h PublicHandler) GetProperty(c *gin.Context) {
	prop, err := h.Catalog.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, propertyJSON(prop))
}

// Calendar returns the dates currently blocked for new stays. Checkout days
// of existing bookings are not blocked.
func (h PublicHandler) Calendar(c *gin.Context) {
	dates, err := h.Bookings.BlockedDates(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked_dates": datesJSON(dates)})
}

type quoteRequest struct {
	RoomCount int      `json:"room_count"`
	Nights    int      `json:"nights"`
	AddOnIDs  []string `json:"add_on_ids"`
}

func (h PublicHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.Bookings.Quote(c.Request.Context(), c.Param("id"), req.RoomCount, req.Nights, req.AddOnIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteJSON(quote))
}

type createBookingRequest struct {
	GuestName   string       `json:"guest_name"`
	GuestPhone  string       `json:"guest_phone"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	RoomCount   int          `json:"room_count"`
	NumGuests   int          `json:"num_guests"`
	AddOnIDs    []string     `json:"add_on_ids"`
	TotalPrice  *money.Money `json:"total_price"`
	Notes       string       `json:"notes"`
}

func (h PublicHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
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

	b, err := h.Bookings.Create(c.Request.Context(), bookings.CreateInput{
		PropertyID:  c.Param("id"),
		GuestName:   req.GuestName,
		GuestPhone:  req.GuestPhone,
		StartDate:   start,
		EndDate:     end,
		RoomCount:   req.RoomCount,
		Guests:      req.NumGuests,
		AddOnIDs:    req.AddOnIDs,
		QuotedTotal: req.TotalPrice,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingJSON(b))
}
