package booking

import (
	"context"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/daterange"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	// StatusMaintenance marks an admin calendar block. It holds dates like a
	// confirmed stay but never enters the guest confirm/cancel flow.
	StatusMaintenance Status = "maintenance"
)

// HoldsDates reports whether a booking in this status blocks its date range.
// Cancelled bookings release their dates.
func (s Status) HoldsDates() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusMaintenance:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusMaintenance:
		return true
	}
	return false
}

// CanTransition encodes the status state machine: admins confirm or cancel
// pending requests and cancel confirmed stays. Cancelled is terminal and
// maintenance blocks are only ever created or deleted.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	}
	return false
}

// Booking is a guest stay request or an admin maintenance hold on a
// property's calendar.
type Booking struct {
	ID         BookingID
	PropertyID string
	GuestName  string
	GuestPhone string
	Range      daterange.DateRange
	RoomCount  int
	Guests     int
	Status     Status
	Total      money.Money
	AddOns     []addon.Snapshot
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Repository is the persistence contract for bookings. Create and the two
// conditional updates are the store-enforced side of the no-overlap and
// guarded-transition invariants; implementations must make them atomic with
// respect to concurrent calls.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Create persists a new booking only if its range does not overlap any
	// date-holding booking of the same property, returning
	// ErrDatesUnavailable otherwise. Check and insert are atomic.
	Create(ctx context.Context, b *Booking) error
	ListByProperty(ctx context.Context, propertyID string) ([]*Booking, error)
	// ListHolding returns the property's bookings whose status holds dates.
	ListHolding(ctx context.Context, propertyID string) ([]*Booking, error)
	ListPendingBefore(ctx context.Context, propertyID string, cutoff time.Time) ([]*Booking, error)
	// UpdateStatusIf transitions a booking only while its status still equals
	// expected at write time; a concurrent change makes it fail with
	// ErrInvalidTransition instead of clobbering the newer state.
	UpdateStatusIf(ctx context.Context, id BookingID, expected, next Status, now time.Time) (*Booking, error)
	// ExpirePending cancels every booking of the property still pending and
	// created before cutoff, appending note, and returns the affected count.
	ExpirePending(ctx context.Context, propertyID string, cutoff time.Time, note string, now time.Time) (int64, error)
	Delete(ctx context.Context, id BookingID) error
}

type CreateParams struct {
	ID         BookingID
	PropertyID string
	GuestName  string
	GuestPhone string
	Range      daterange.DateRange
	RoomCount  int
	Guests     int
	Total      money.Money
	AddOns     []addon.Snapshot
	Notes      string
	CreatedAt  time.Time
}

// New builds a guest booking in the initial pending state.
func New(params CreateParams) (*Booking, error) {
	if params.ID == "" {
		return nil, invalidInput("id", "required")
	}
	if params.PropertyID == "" {
		return nil, invalidInput("property_id", "required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, invalidInput("dates", "end date must be after start date")
	}
	if params.Guests < 1 {
		return nil, invalidInput("guests", "at least one guest required")
	}
	if params.Total.Amount < 0 {
		return nil, invalidInput("total", "cannot be negative")
	}
	now := params.CreatedAt.UTC()
	return &Booking{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		GuestName:  params.GuestName,
		GuestPhone: params.GuestPhone,
		Range:      params.Range,
		RoomCount:  params.RoomCount,
		Guests:     params.Guests,
		Status:     StatusPending,
		Total:      params.Total,
		AddOns:     append([]addon.Snapshot(nil), params.AddOns...),
		Notes:      params.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewMaintenanceBlock builds an admin calendar hold. It carries no guests and
// no price and is created directly in the maintenance status.
func NewMaintenanceBlock(id BookingID, propertyID string, r daterange.DateRange, notes string, now time.Time) (*Booking, error) {
	if id == "" {
		return nil, invalidInput("id", "required")
	}
	if propertyID == "" {
		return nil, invalidInput("property_id", "required")
	}
	if err := r.Validate(); err != nil {
		return nil, invalidInput("dates", "end date must be after start date")
	}
	if notes == "" {
		notes = "Maintenance block"
	}
	created := now.UTC()
	return &Booking{
		ID:         id,
		PropertyID: propertyID,
		Range:      r,
		Status:     StatusMaintenance,
		Total:      money.Zero(money.DefaultCurrency),
		Notes:      notes,
		CreatedAt:  created,
		UpdatedAt:  created,
	}, nil
}

// Transition applies a status change, enforcing the state machine.
func (b *Booking) Transition(next Status, now time.Time) error {
	if !CanTransition(b.Status, next) {
		return ErrInvalidTransition
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

// AppendNote adds a machine- or admin-generated note, preserving history.
func (b *Booking) AppendNote(note string) {
	b.Notes = AppendedNote(b.Notes, note)
}

// AppendedNote joins an existing notes field with a new note.
func AppendedNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
