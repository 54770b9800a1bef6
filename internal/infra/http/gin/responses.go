package ginserver

import (
	"time"

	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/pricing"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
)

const dateLayout = "2006-01-02"

func bookingJSON(b *booking.Booking) gin.H {
	return gin.H{
		"id":            string(b.ID),
		"property_id":   b.PropertyID,
		"guest_name":    b.GuestName,
		"guest_phone":   b.GuestPhone,
		"start_date":    b.Range.Start.Format(dateLayout),
		"end_date":      b.Range.End.Format(dateLayout),
		"nights":        b.Range.Nights(),
		"room_count":    b.RoomCount,
		"num_guests":    b.Guests,
		"status":        string(b.Status),
		"total":         b.Total,
		"total_display": b.Total.String(),
		"add_ons":       b.AddOns,
		"notes":         b.Notes,
		"created_at":    b.CreatedAt.Format(time.RFC3339),
		"updated_at":    b.UpdatedAt.Format(time.RFC3339),
	}
}

func bookingsJSON(list []*booking.Booking) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, b := range list {
		out = append(out, bookingJSON(b))
	}
	return out
}

func propertyJSON(p *property.Property) gin.H {
	tiers := make([]gin.H, 0, len(p.TierPrices))
	for _, tier := range p.Tiers() {
		price := p.TierPrices[tier]
		tiers = append(tiers, gin.H{
			"rooms":           tier,
			"nightly":         price,
			"nightly_display": price.String(),
		})
	}
	return gin.H{
		"id":                    p.ID,
		"name":                  p.Name,
		"description":           p.Description,
		"tiers":                 tiers,
		"max_guests":            p.MaxGuests,
		"pending_timeout_hours": p.TimeoutHours(),
		"whatsapp_number":       p.WhatsAppNumber,
	}
}

func addOnJSON(a *addon.AddOn) gin.H {
	return gin.H{
		"id":            a.ID,
		"property_id":   a.PropertyID,
		"name":          a.Name,
		"price":         a.Price,
		"price_display": a.Price.String(),
		"active":        a.Active,
	}
}

func addOnsJSON(list []*addon.AddOn) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, a := range list {
		out = append(out, addOnJSON(a))
	}
	return out
}

func quoteJSON(q pricing.Quote) gin.H {
	return gin.H{
		"room_count":    q.RoomCount,
		"nights":        q.Nights,
		"nightly":       q.Nightly,
		"add_ons":       q.AddOns,
		"total":         q.Total,
		"total_display": q.Total.String(),
	}
}

func datesJSON(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}
