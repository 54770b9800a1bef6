package bookings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/addon"
	"github.com/yuzpew2/casadbendang/internal/domain/availability"
	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/money"
	"github.com/yuzpew2/casadbendang/internal/infra/storage/memory"
)

const testPropertyID = "prop-1"

type capturingNotifier struct {
	mu     sync.Mutex
	events []HandoffEvent
}

func (n *capturingNotifier) BookingRequested(ctx context.Context, evt HandoffEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return nil
}

type fixture struct {
	svc        *Service
	bookings   *memory.BookingRepository
	properties *memory.PropertyRepository
	addons     *memory.AddOnRepository
	notifier   *capturingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	bookingsRepo := memory.NewBookingRepository()
	propertiesRepo := memory.NewPropertyRepository()
	addonsRepo := memory.NewAddOnRepository()
	notifier := &capturingNotifier{}

	now := time.Now().UTC()
	prop := &property.Property{
		ID:   testPropertyID,
		Name: "Casa D'Bendang",
		TierPrices: map[int]money.Money{
			3: money.RM(350),
			4: money.RM(450),
			6: money.RM(650),
		},
		MaxGuests:           16,
		PendingTimeoutHours: 24,
		WhatsAppNumber:      "60193452907",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := propertiesRepo.Save(context.Background(), prop); err != nil {
		t.Fatalf("seed property: %v", err)
	}

	return &fixture{
		svc:        NewService(log, bookingsRepo, propertiesRepo, addonsRepo, notifier),
		bookings:   bookingsRepo,
		properties: propertiesRepo,
		addons:     addonsRepo,
		notifier:   notifier,
	}
}

func (f *fixture) seedAddOn(t *testing.T, id, name string, price money.Money, active bool) {
	t.Helper()
	a := &addon.AddOn{
		ID:         id,
		PropertyID: testPropertyID,
		Name:       name,
		Price:      price,
		Active:     active,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.addons.Save(context.Background(), a); err != nil {
		t.Fatalf("seed add-on: %v", err)
	}
}

func createInput(startDay, endDay int) CreateInput {
	return CreateInput{
		PropertyID: testPropertyID,
		GuestName:  "Aina",
		GuestPhone: "60123456789",
		StartDate:  time.Date(2025, 6, startDay, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, endDay, 0, 0, 0, 0, time.UTC),
		RoomCount:  4,
		Guests:     6,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAddOn(t, "ao-1", "BBQ pit", money.RM(50), true)

	input := createInput(1, 4)
	input.AddOnIDs = []string{"ao-1"}

	b, err := f.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("Status = %s, want pending", b.Status)
	}
	if !b.Total.Equal(money.RM(1400)) {
		t.Errorf("Total = %s, want RM1400.00", b.Total)
	}
	if len(b.AddOns) != 1 || b.AddOns[0].Name != "BBQ pit" {
		t.Errorf("AddOns = %+v, want snapshot of BBQ pit", b.AddOns)
	}
	if b.ID == "" {
		t.Error("booking id not assigned")
	}
	if len(f.notifier.events) != 1 {
		t.Fatalf("notifier received %d events, want 1", len(f.notifier.events))
	}
	evt := f.notifier.events[0]
	if evt.BookingID != string(b.ID) || evt.Nights != 3 || !evt.Total.Equal(money.RM(1400)) {
		t.Errorf("handoff event = %+v", evt)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"inverted dates", func(in *CreateInput) { in.StartDate, in.EndDate = in.EndDate, in.StartDate }, booking.ErrInvalidInput},
		{"equal dates", func(in *CreateInput) { in.EndDate = in.StartDate }, booking.ErrInvalidInput},
		{"unsupported tier", func(in *CreateInput) { in.RoomCount = 5 }, booking.ErrInvalidInput},
		{"zero guests", func(in *CreateInput) { in.Guests = 0 }, booking.ErrInvalidInput},
		{"over guest limit", func(in *CreateInput) { in.Guests = 99 }, booking.ErrInvalidInput},
		{"unknown add-on", func(in *CreateInput) { in.AddOnIDs = []string{"nope"} }, booking.ErrInvalidInput},
		{"unknown property", func(in *CreateInput) { in.PropertyID = "ghost" }, booking.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createInput(1, 4)
			tt.mutate(&input)
			if _, err := f.svc.Create(ctx, input); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}

	// Nothing was written.
	all, err := f.bookings.ListByProperty(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("ListByProperty: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("invalid inputs wrote %d rows", len(all))
	}
}

func TestCreateRejectsInactiveAddOn(t *testing.T) {
	f := newFixture(t)
	f.seedAddOn(t, "ao-off", "Retired extra", money.RM(20), false)
	input := createInput(1, 4)
	input.AddOnIDs = []string{"ao-off"}
	if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, booking.ErrInvalidInput) {
		t.Errorf("Create() error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateRejectsMismatchedClientQuote(t *testing.T) {
	f := newFixture(t)
	input := createInput(1, 4)
	quoted := money.RM(1)
	input.QuotedTotal = &quoted
	if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, booking.ErrInvalidInput) {
		t.Errorf("Create() error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateAcceptsMatchingClientQuote(t *testing.T) {
	f := newFixture(t)
	input := createInput(1, 4)
	quoted := money.RM(1350) // 3 nights at RM450
	input.QuotedTotal = &quoted
	if _, err := f.svc.Create(context.Background(), input); err != nil {
		t.Errorf("Create() error: %v", err)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, createInput(10, 15)); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}

	tests := []struct {
		name    string
		start   int
		end     int
		wantErr error
	}{
		{"fully inside", 11, 13, booking.ErrDatesUnavailable},
		{"identical", 10, 15, booking.ErrDatesUnavailable},
		{"head overlap", 8, 11, booking.ErrDatesUnavailable},
		{"tail overlap", 14, 18, booking.ErrDatesUnavailable},
		{"back-to-back after", 15, 18, nil},
		{"back-to-back before", 7, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, createInput(tt.start, tt.end))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Create() error = %v, want success", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, createInput(10, 15))
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, booking.ErrDatesUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d creates succeeded, want exactly 1 (%d conflicts)", wins, conflicts)
	}

	holding, err := f.bookings.ListHolding(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("ListHolding: %v", err)
	}
	for i, a := range holding {
		for _, b := range holding[i+1:] {
			if a.Range.Overlaps(b.Range) {
				t.Fatalf("overlapping bookings persisted: %v and %v", a.Range, b.Range)
			}
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, createInput(1, 4))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	confirmed, err := f.svc.UpdateStatus(ctx, b.ID, booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus(confirmed) error: %v", err)
	}
	if confirmed.Status != booking.StatusConfirmed {
		t.Errorf("Status = %s, want confirmed", confirmed.Status)
	}

	cancelled, err := f.svc.UpdateStatus(ctx, b.ID, booking.StatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus(cancelled) error: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Errorf("Status = %s, want cancelled", cancelled.Status)
	}

	// Cancelled is terminal; the row stays untouched.
	if _, err := f.svc.UpdateStatus(ctx, b.ID, booking.StatusConfirmed); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("UpdateStatus on cancelled error = %v, want ErrInvalidTransition", err)
	}
	current, err := f.bookings.ByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if current.Status != booking.StatusCancelled {
		t.Errorf("row mutated by rejected transition: %s", current.Status)
	}
}

func TestUpdateStatusUnknownBooking(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.UpdateStatus(context.Background(), "ghost", booking.StatusConfirmed); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

func TestCancelledDatesBecomeBookableAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, createInput(10, 15))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, b.ID, booking.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if _, err := f.svc.Create(ctx, createInput(10, 15)); err != nil {
		t.Errorf("Create() after cancellation error = %v, want success", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, createInput(10, 15))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	// Deletion releases the hold immediately.
	if _, err := f.svc.Create(ctx, createInput(10, 15)); err != nil {
		t.Errorf("Create() after delete error = %v, want success", err)
	}
	if err := f.svc.Delete(ctx, "ghost"); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("Delete(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestCreateMaintenanceBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	block, err := f.svc.CreateMaintenanceBlock(ctx, testPropertyID,
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), "repainting")
	if err != nil {
		t.Fatalf("CreateMaintenanceBlock() error: %v", err)
	}
	if block.Status != booking.StatusMaintenance {
		t.Errorf("Status = %s, want maintenance", block.Status)
	}

	// The block holds its dates against guest bookings.
	if _, err := f.svc.Create(ctx, createInput(21, 23)); !errors.Is(err, booking.ErrDatesUnavailable) {
		t.Errorf("Create() over maintenance block error = %v, want ErrDatesUnavailable", err)
	}

	// Maintenance blocks never enter the confirm/cancel flow.
	if _, err := f.svc.UpdateStatus(ctx, block.ID, booking.StatusCancelled); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("UpdateStatus on maintenance error = %v, want ErrInvalidTransition", err)
	}
}

func TestBlockedDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, createInput(1, 4)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := f.svc.Create(ctx, createInput(10, 12)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	dates, err := f.svc.BlockedDates(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("BlockedDates() error: %v", err)
	}
	want := []time.Time{
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
	}
	if len(dates) != len(want) {
		t.Fatalf("BlockedDates() = %v, want %v", dates, want)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("BlockedDates()[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	f.seedAddOn(t, "ao-1", "BBQ pit", money.RM(50), true)

	quote, err := f.svc.Quote(context.Background(), testPropertyID, 4, 3, []string{"ao-1"})
	if err != nil {
		t.Fatalf("Quote() error: %v", err)
	}
	if !quote.Total.Equal(money.RM(1400)) {
		t.Errorf("Total = %s, want RM1400.00", quote.Total)
	}

	// Zero-night preview is allowed.
	preview, err := f.svc.Quote(context.Background(), testPropertyID, 4, 0, nil)
	if err != nil {
		t.Fatalf("Quote(0 nights) error: %v", err)
	}
	if !preview.Total.IsZero() {
		t.Errorf("zero-night preview total = %s, want zero", preview.Total)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Create(ctx, createInput(1, 4))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := f.svc.Create(ctx, createInput(10, 12)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, first.ID, booking.StatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}

	confirmed, err := f.svc.List(ctx, testPropertyID, booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(confirmed) != 1 || confirmed[0].ID != first.ID {
		t.Errorf("List(confirmed) = %d rows", len(confirmed))
	}

	all, err := f.svc.List(ctx, testPropertyID, "")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) = %d rows, want 2", len(all))
	}

	if _, err := f.svc.List(ctx, testPropertyID, booking.Status("bogus")); !errors.Is(err, booking.ErrInvalidInput) {
		t.Errorf("List(bogus) error = %v, want ErrInvalidInput", err)
	}
}

// The no-overlap invariant holds after an arbitrary mix of operations.
func TestNoOverlapInvariantAfterMixedOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b1, err := f.svc.Create(ctx, createInput(1, 5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, b1.ID, booking.StatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := f.svc.Create(ctx, createInput(5, 8)); err != nil {
		t.Fatalf("Create back-to-back: %v", err)
	}
	if _, err := f.svc.CreateMaintenanceBlock(ctx, testPropertyID,
		time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), ""); err != nil {
		t.Fatalf("CreateMaintenanceBlock: %v", err)
	}
	if _, err := f.svc.Create(ctx, createInput(2, 9)); !errors.Is(err, booking.ErrDatesUnavailable) {
		t.Fatalf("spanning create error = %v, want ErrDatesUnavailable", err)
	}

	holding, err := f.bookings.ListHolding(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("ListHolding: %v", err)
	}
	var checked []*booking.Booking
	for _, b := range holding {
		if availability.HasConflict(checked, b.Range) {
			t.Fatalf("stored bookings overlap at %v", b.Range)
		}
		checked = append(checked, b)
	}
}
