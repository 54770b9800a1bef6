package pricing

import (
	"errors"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

var (
	ErrInvalidRoomCount = errors.New("pricing: room count is not a supported tier")
	ErrNegativeNights   = errors.New("pricing: nights cannot be negative")
)

// Quote is the full price breakdown for a stay configuration.
type Quote struct {
	RoomCount int
	Nights    int
	Nightly   money.Money
	AddOns    []addon.Snapshot
	Total     money.Money
}

// Calculate prices a stay: tier nightly rate times nights plus the selected
// add-ons. Pure and deterministic so the server re-derivation always agrees
// with a correctly computed client quote. Zero nights is a valid input (UI
// previews before dates are picked) and simply prices the add-ons alone.
func Calculate(tiers map[int]money.Money, roomCount, nights int, addOns []addon.Snapshot) (Quote, error) {
	nightly, ok := tiers[roomCount]
	if !ok {
		return Quote{}, ErrInvalidRoomCount
	}
	if nights < 0 {
		return Quote{}, ErrNegativeNights
	}
	total := nightly.Multiply(int64(nights))
	for _, a := range addOns {
		sum, err := total.Add(a.Price)
		if err != nil {
			return Quote{}, err
		}
		total = sum
	}
	return Quote{
		RoomCount: roomCount,
		Nights:    nights,
		Nightly:   nightly,
		AddOns:    append([]addon.Snapshot(nil), addOns...),
		Total:     total,
	}, nil
}
