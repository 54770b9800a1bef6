package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainaddon "github.com/yuzpew2/casadbendang/internal/domain/addon"
	domainbooking "github.com/yuzpew2/casadbendang/internal/domain/booking"
	domainproperty "github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
)

// BookingRepository keeps bookings in memory. The write lock spans the
// overlap check and the insert, which makes Create atomic in-process, the
// same guarantee the Mongo repository gets from its transaction.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Status.HoldsDates() {
		for _, existing := range r.items {
			if existing.PropertyID != b.PropertyID || !existing.Status.HoldsDates() {
				continue
			}
			if existing.Range.Overlaps(b.Range) {
				return domainbooking.ErrDatesUnavailable
			}
		}
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(propertyID, func(b *domainbooking.Booking) bool { return true }), nil
}

func (r *BookingRepository) ListHolding(ctx context.Context, propertyID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(propertyID, func(b *domainbooking.Booking) bool { return b.Status.HoldsDates() }), nil
}

func (r *BookingRepository) ListPendingBefore(ctx context.Context, propertyID string, cutoff time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(propertyID, func(b *domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusPending && b.CreatedAt.Before(cutoff)
	}), nil
}

func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id domainbooking.BookingID, expected, next domainbooking.Status, now time.Time) (*domainbooking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	if b.Status != expected {
		return nil, domainbooking.ErrInvalidTransition
	}
	if err := b.Transition(next, now); err != nil {
		return nil, err
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) ExpirePending(ctx context.Context, propertyID string, cutoff time.Time, note string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, b := range r.items {
		if b.PropertyID != propertyID || b.Status != domainbooking.StatusPending || !b.CreatedAt.Before(cutoff) {
			continue
		}
		b.Status = domainbooking.StatusCancelled
		b.AppendNote(note)
		b.UpdatedAt = now.UTC()
		affected++
	}
	return affected, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepository) collect(propertyID string, match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PropertyID == propertyID && match(b) {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.AddOns = append([]domainaddon.Snapshot(nil), b.AddOns...)
	return &clone
}

// PropertyRepository stores properties in memory.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[string]*domainproperty.Property
	order []string
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[string]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id string) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return cloneProperty(p), nil
}

func (r *PropertyRepository) First(ctx context.Context) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return cloneProperty(r.items[r.order[0]]), nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	props := make([]*domainproperty.Property, 0, len(r.order))
	for _, id := range r.order {
		props = append(props, cloneProperty(r.items[id]))
	}
	return props, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.items[p.ID] = cloneProperty(p)
	return nil
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	clone := *p
	clone.TierPrices = make(map[int]money.Money, len(p.TierPrices))
	for tier, price := range p.TierPrices {
		clone.TierPrices[tier] = price
	}
	return &clone
}

// AddOnRepository stores the add-on catalog in memory.
type AddOnRepository struct {
	mu    sync.RWMutex
	items map[string]*domainaddon.AddOn
}

func NewAddOnRepository() *AddOnRepository {
	return &AddOnRepository{items: make(map[string]*domainaddon.AddOn)}
}

func (r *AddOnRepository) ByID(ctx context.Context, id string) (*domainaddon.AddOn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, domainaddon.ErrAddOnNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *AddOnRepository) ListByProperty(ctx context.Context, propertyID string, activeOnly bool) ([]*domainaddon.AddOn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainaddon.AddOn, 0)
	for _, a := range r.items {
		if a.PropertyID != propertyID {
			continue
		}
		if activeOnly && !a.Active {
			continue
		}
		clone := *a
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *AddOnRepository) Save(ctx context.Context, a *domainaddon.AddOn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *AddOnRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainaddon.ErrAddOnNotFound
	}
	delete(r.items, id)
	return nil
}
