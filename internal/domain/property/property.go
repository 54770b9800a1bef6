package property

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrUnknownTier      = errors.New("property: room count is not a supported tier")
	ErrInvalidSettings  = errors.New("property: invalid settings")
)

// DefaultPendingTimeoutHours applies when a property has no explicit
// timeout configured.
const DefaultPendingTimeoutHours = 24

// Property is one managed homestay listing. Nightly prices are tiered by the
// number of rooms the guest takes; the tier set is fixed per property.
type Property struct {
	ID                  string
	Name                string
	TierPrices          map[int]money.Money
	MaxGuests           int
	PendingTimeoutHours int
	WhatsAppNumber      string
	Description         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Property, error)
	// First returns the deployment's primary property. Convenience read for
	// the public site; every mutating operation takes an explicit id.
	First(ctx context.Context) (*Property, error)
	List(ctx context.Context) ([]*Property, error)
	Save(ctx context.Context, p *Property) error
}

// TierPrice resolves the nightly price for a room count.
func (p *Property) TierPrice(roomCount int) (money.Money, error) {
	price, ok := p.TierPrices[roomCount]
	if !ok {
		return money.Money{}, ErrUnknownTier
	}
	return price, nil
}

// Tiers lists the supported room counts in ascending order.
func (p *Property) Tiers() []int {
	tiers := make([]int, 0, len(p.TierPrices))
	for tier := range p.TierPrices {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)
	return tiers
}

// TimeoutHours returns the configured pending timeout, falling back to the
// default policy value when unset.
func (p *Property) TimeoutHours() int {
	if p.PendingTimeoutHours < 1 {
		return DefaultPendingTimeoutHours
	}
	return p.PendingTimeoutHours
}

// Settings carries the admin-editable fields.
type Settings struct {
	Name                string
	TierPrices          map[int]money.Money
	MaxGuests           int
	PendingTimeoutHours int
	WhatsAppNumber      string
	Description         string
}

// UpdateSettings applies validated admin settings. Tier prices replace the
// existing map wholesale so a tier cannot be half-updated.
func (p *Property) UpdateSettings(s Settings, now time.Time) error {
	if s.Name == "" {
		return ErrInvalidSettings
	}
	if s.MaxGuests < 1 {
		return ErrInvalidSettings
	}
	if s.PendingTimeoutHours < 1 {
		return ErrInvalidSettings
	}
	if len(s.TierPrices) == 0 {
		return ErrInvalidSettings
	}
	for _, price := range s.TierPrices {
		if price.Amount <= 0 || price.Currency == "" {
			return ErrInvalidSettings
		}
	}
	p.Name = s.Name
	p.TierPrices = make(map[int]money.Money, len(s.TierPrices))
	for tier, price := range s.TierPrices {
		p.TierPrices[tier] = price
	}
	p.MaxGuests = s.MaxGuests
	p.PendingTimeoutHours = s.PendingTimeoutHours
	p.WhatsAppNumber = s.WhatsAppNumber
	p.Description = s.Description
	p.UpdatedAt = now.UTC()
	return nil
}
