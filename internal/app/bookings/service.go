package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/availability"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/pricing"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/daterange"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

// HandoffEvent is what the external message-composition collaborator needs
// to build a confirmation message for the guest. Composition itself happens
// outside this service.
type HandoffEvent struct {
	BookingID      string           `json:"booking_id"`
	PropertyID     string           `json:"property_id"`
	PropertyName   string           `json:"property_name"`
	WhatsAppNumber string           `json:"whatsapp_number,omitempty"`
	GuestName      string           `json:"guest_name,omitempty"`
	GuestPhone     string           `json:"guest_phone,omitempty"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Nights         int              `json:"nights"`
	Guests         int              `json:"guests"`
	RoomCount      int              `json:"room_count"`
	AddOns         []addon.Snapshot `json:"add_ons,omitempty"`
	Total          money.Money      `json:"total"`
	TotalDisplay   string           `json:"total_display"`
	RequestedAt    time.Time        `json:"requested_at"`
}

// Notifier hands a freshly created booking off to the messaging channel.
// Delivery is advisory: failures are logged, never surfaced to the guest.
type Notifier interface {
	BookingRequested(ctx context.Context, evt HandoffEvent) error
}

// Service owns booking admission and lifecycle: creation gated by the
// overlap check, status transitions, deletion and maintenance blocks.
type Service struct {
	log        *slog.Logger
	bookings   booking.Repository
	properties property.Repository
	addons     addon.Repository
	notifier   Notifier
	now        func() time.Time
}

func NewService(log *slog.Logger, bookings booking.Repository, properties property.Repository, addons addon.Repository, notifier Notifier) *Service {
	return &Service{
		log:        log,
		bookings:   bookings,
		properties: properties,
		addons:     addons,
		notifier:   notifier,
		now:        time.Now,
	}
}

type CreateInput struct {
	PropertyID string
	GuestName  string
	GuestPhone string
	StartDate  time.Time
	EndDate    time.Time
	RoomCount  int
	Guests     int
	AddOnIDs   []string
	// QuotedTotal is the client-computed total, if submitted. The server
	// recomputes the quote from authoritative prices and rejects a mismatch
	// rather than trusting it.
	QuotedTotal *money.Money
	Notes       string
}

// Create admits a stay request. The in-process overlap check is a fast-fail
// pre-check against current data; the repository's Create is the authority
// and re-runs the same guard atomically, so two concurrent requests for
// overlapping ranges cannot both land.
func (s *Service) Create(ctx context.Context, input CreateInput) (*booking.Booking, error) {
	if input.PropertyID == "" {
		return nil, &booking.InputError{Field: "property_id", Reason: "required"}
	}
	prop, err := s.properties.ByID(ctx, input.PropertyID)
	if err != nil {
		return nil, mapPropertyErr(err)
	}

	dr, err := daterange.New(input.StartDate, input.EndDate)
	if err != nil {
		return nil, &booking.InputError{Field: "dates", Reason: "end date must be after start date"}
	}
	if _, err := prop.TierPrice(input.RoomCount); err != nil {
		return nil, &booking.InputError{Field: "room_count", Reason: "not a supported tier"}
	}
	if input.Guests < 1 {
		return nil, &booking.InputError{Field: "num_guests", Reason: "at least one guest required"}
	}
	if prop.MaxGuests > 0 && input.Guests > prop.MaxGuests {
		return nil, &booking.InputError{Field: "num_guests", Reason: "exceeds the property guest limit"}
	}

	snapshots, err := s.snapshotAddOns(ctx, prop.ID, input.AddOnIDs)
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Calculate(prop.TierPrices, input.RoomCount, dr.Nights(), snapshots)
	if err != nil {
		return nil, &booking.InputError{Field: "room_count", Reason: "not a supported tier"}
	}
	if input.QuotedTotal != nil && !input.QuotedTotal.Equal(quote.Total) {
		return nil, &booking.InputError{Field: "total_price", Reason: "does not match the server-computed quote"}
	}

	holding, err := s.bookings.ListHolding(ctx, prop.ID)
	if err != nil {
		return nil, err
	}
	if availability.HasConflict(holding, dr) {
		return nil, booking.ErrDatesUnavailable
	}

	b, err := booking.New(booking.CreateParams{
		ID:         booking.BookingID(uuid.NewString()),
		PropertyID: prop.ID,
		GuestName:  input.GuestName,
		GuestPhone: input.GuestPhone,
		Range:      dr,
		RoomCount:  input.RoomCount,
		Guests:     input.Guests,
		Total:      quote.Total,
		AddOns:     snapshots,
		Notes:      input.Notes,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		"booking_id", b.ID,
		"property_id", b.PropertyID,
		"start", b.Range.Start.Format("2006-01-02"),
		"end", b.Range.End.Format("2006-01-02"),
		"total", b.Total.String(),
	)
	s.handoff(ctx, prop, b)
	return b, nil
}

// UpdateStatus applies an admin transition. The repository update is
// conditioned on the status observed here, so a concurrent change (for
// example the expiry sweep) turns this into ErrInvalidTransition instead of
// a lost update.
func (s *Service) UpdateStatus(ctx context.Context, id booking.BookingID, next booking.Status) (*booking.Booking, error) {
	if !next.Valid() {
		return nil, &booking.InputError{Field: "status", Reason: "unknown status"}
	}
	current, err := s.bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(current.Status, next) {
		return nil, booking.ErrInvalidTransition
	}
	return s.bookings.UpdateStatusIf(ctx, id, current.Status, next, s.now())
}

// Delete removes a booking regardless of status, releasing any date hold.
func (s *Service) Delete(ctx context.Context, id booking.BookingID) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("booking deleted", "booking_id", id)
	return nil
}

// CreateMaintenanceBlock reserves a range for upkeep. It goes through the
// same overlap guard as guest bookings.
func (s *Service) CreateMaintenanceBlock(ctx context.Context, propertyID string, start, end time.Time, notes string) (*booking.Booking, error) {
	if _, err := s.properties.ByID(ctx, propertyID); err != nil {
		return nil, mapPropertyErr(err)
	}
	dr, err := daterange.New(start, end)
	if err != nil {
		return nil, &booking.InputError{Field: "dates", Reason: "end date must be after start date"}
	}

	holding, err := s.bookings.ListHolding(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if availability.HasConflict(holding, dr) {
		return nil, booking.ErrDatesUnavailable
	}

	b, err := booking.NewMaintenanceBlock(booking.BookingID(uuid.NewString()), propertyID, dr, notes, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("maintenance block created", "booking_id", b.ID, "property_id", propertyID)
	return b, nil
}

// List returns the property's bookings, optionally filtered by status.
func (s *Service) List(ctx context.Context, propertyID string, status booking.Status) ([]*booking.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, &booking.InputError{Field: "status", Reason: "unknown status"}
	}
	all, err := s.bookings.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	filtered := make([]*booking.Booking, 0, len(all))
	for _, b := range all {
		if b.Status == status {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// BlockedDates derives the dates currently unavailable for a new stay.
func (s *Service) BlockedDates(ctx context.Context, propertyID string) ([]time.Time, error) {
	holding, err := s.bookings.ListHolding(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return availability.BlockedDates(holding), nil
}

// Quote prices a stay configuration without touching booking state. Used by
// the UI preview; Create re-derives the same numbers at admission time.
func (s *Service) Quote(ctx context.Context, propertyID string, roomCount, nights int, addOnIDs []string) (pricing.Quote, error) {
	prop, err := s.properties.ByID(ctx, propertyID)
	if err != nil {
		return pricing.Quote{}, mapPropertyErr(err)
	}
	snapshots, err := s.snapshotAddOns(ctx, prop.ID, addOnIDs)
	if err != nil {
		return pricing.Quote{}, err
	}
	quote, err := pricing.Calculate(prop.TierPrices, roomCount, nights, snapshots)
	if err != nil {
		return pricing.Quote{}, &booking.InputError{Field: "room_count", Reason: "not a supported tier"}
	}
	return quote, nil
}

// snapshotAddOns resolves requested catalog ids against the property's
// active add-ons and copies their name and price. Inactive or foreign
// add-ons are rejected, never silently dropped.
func (s *Service) snapshotAddOns(ctx context.Context, propertyID string, ids []string) ([]addon.Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	active, err := s.addons.ListByProperty(ctx, propertyID, true)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*addon.AddOn, len(active))
	for _, a := range active {
		byID[a.ID] = a
	}
	snapshots := make([]addon.Snapshot, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, &booking.InputError{Field: "add_ons", Reason: "unknown or inactive add-on: " + id}
		}
		snapshots = append(snapshots, a.Snapshot())
	}
	return snapshots, nil
}

func (s *Service) handoff(ctx context.Context, prop *property.Property, b *booking.Booking) {
	if s.notifier == nil {
		return
	}
	evt := HandoffEvent{
		BookingID:      string(b.ID),
		PropertyID:     prop.ID,
		PropertyName:   prop.Name,
		WhatsAppNumber: prop.WhatsAppNumber,
		GuestName:      b.GuestName,
		GuestPhone:     b.GuestPhone,
		StartDate:      b.Range.Start.Format("2006-01-02"),
		EndDate:        b.Range.End.Format("2006-01-02"),
		Nights:         b.Range.Nights(),
		Guests:         b.Guests,
		RoomCount:      b.RoomCount,
		AddOns:         b.AddOns,
		Total:          b.Total,
		TotalDisplay:   b.Total.String(),
		RequestedAt:    b.CreatedAt,
	}
	if err := s.notifier.BookingRequested(ctx, evt); err != nil {
		s.log.Warn("booking handoff failed", "booking_id", b.ID, "error", err)
	}
}

func mapPropertyErr(err error) error {
	if errors.Is(err, property.ErrPropertyNotFound) {
		return booking.ErrNotFound
	}
	return err
}
