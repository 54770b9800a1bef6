package addon

import (
	"context"
	"errors"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

var (
	ErrAddOnNotFound = errors.New("addon: not found")
	ErrInvalidAddOn  = errors.New("addon: name required and price cannot be negative")
)

// AddOn is a catalog entry a guest can attach to a booking (breakfast,
// BBQ pit, early check-in and the like).
type AddOn struct {
	ID         string
	PropertyID string
	Name       string
	Price      money.Money
	Active     bool
	CreatedAt  time.Time
}

// Snapshot is the value copy embedded in a booking at creation time.
// Bookings never reference the catalog row, so later catalog edits cannot
// change historical prices.
type Snapshot struct {
	Name  string      `json:"name" bson:"name"`
	Price money.Money `json:"price" bson:"price"`
}

type Repository interface {
	ByID(ctx context.Context, id string) (*AddOn, error)
	ListByProperty(ctx context.Context, propertyID string, activeOnly bool) ([]*AddOn, error)
	Save(ctx context.Context, a *AddOn) error
	Delete(ctx context.Context, id string) error
}

func New(id, propertyID, name string, price money.Money, now time.Time) (*AddOn, error) {
	if name == "" || price.Amount < 0 {
		return nil, ErrInvalidAddOn
	}
	return &AddOn{
		ID:         id,
		PropertyID: propertyID,
		Name:       name,
		Price:      price,
		Active:     true,
		CreatedAt:  now.UTC(),
	}, nil
}

// Snapshot copies the catalog values for embedding into a booking.
func (a *AddOn) Snapshot() Snapshot {
	return Snapshot{Name: a.Name, Price: a.Price}
}
