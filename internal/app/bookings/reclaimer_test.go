package bookings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/daterange"
)

func newReclaimerFixture(t *testing.T, at time.Time) (*fixture, *Reclaimer) {
	t.Helper()
	f := newFixture(t)
	r := NewReclaimer(slog.New(slog.DiscardHandler), f.bookings, f.properties)
	r.now = func() time.Time { return at }
	return f, r
}

func seedPending(t *testing.T, f *fixture, id string, startDay int, age time.Duration, at time.Time) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2025, 7, startDay, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, startDay+2, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	b, err := booking.New(booking.CreateParams{
		ID:         booking.BookingID(id),
		PropertyID: testPropertyID,
		GuestName:  "Farid",
		Range:      dr,
		RoomCount:  3,
		Guests:     4,
		CreatedAt:  at.Add(-age),
	})
	if err != nil {
		t.Fatalf("booking.New: %v", err)
	}
	if err := f.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func TestSweepCancelsOnlyExpiredPending(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f, r := newReclaimerFixture(t, at)
	ctx := context.Background()

	stale := seedPending(t, f, "b-stale", 1, 30*time.Hour, at)
	fresh := seedPending(t, f, "b-fresh", 10, 10*time.Hour, at)

	result, err := r.Sweep(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if result.Affected != 1 {
		t.Fatalf("Affected = %d, want 1", result.Affected)
	}
	if result.TimeoutHours != 24 {
		t.Errorf("TimeoutHours = %d, want 24", result.TimeoutHours)
	}
	if len(result.Cancelled) != 1 || result.Cancelled[0].BookingID != "b-stale" {
		t.Errorf("Cancelled = %+v, want just b-stale", result.Cancelled)
	}

	got, err := f.bookings.ByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Status != booking.StatusCancelled {
		t.Errorf("stale booking status = %s, want cancelled", got.Status)
	}
	if !strings.Contains(got.Notes, "Auto-cancelled: No response within 24 hours") {
		t.Errorf("stale booking notes = %q, missing auto-cancel note", got.Notes)
	}

	got, err = f.bookings.ByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Status != booking.StatusPending {
		t.Errorf("fresh booking status = %s, want pending", got.Status)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f, r := newReclaimerFixture(t, at)
	ctx := context.Background()
	seedPending(t, f, "b-stale", 1, 30*time.Hour, at)

	first, err := r.Sweep(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("first Sweep() error: %v", err)
	}
	if first.Affected != 1 {
		t.Fatalf("first Affected = %d, want 1", first.Affected)
	}

	second, err := r.Sweep(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("second Sweep() error: %v", err)
	}
	if second.Affected != 0 {
		t.Errorf("second Affected = %d, want 0", second.Affected)
	}
	if len(second.Cancelled) != 0 {
		t.Errorf("second Cancelled = %+v, want empty", second.Cancelled)
	}
}

// A booking confirmed between the candidate read and the guarded update
// must stay confirmed; the sweep's filter only matches rows still pending.
func TestSweepDoesNotUndoConcurrentConfirmation(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f, r := newReclaimerFixture(t, at)
	ctx := context.Background()
	b := seedPending(t, f, "b-confirmed", 1, 30*time.Hour, at)

	if _, err := f.bookings.UpdateStatusIf(ctx, b.ID, booking.StatusPending, booking.StatusConfirmed, at); err != nil {
		t.Fatalf("UpdateStatusIf: %v", err)
	}

	result, err := r.Sweep(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if result.Affected != 0 {
		t.Errorf("Affected = %d, want 0", result.Affected)
	}

	got, err := f.bookings.ByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", got.Status)
	}
}

// raceConfirmRepo confirms one booking after the candidate read but before
// the bulk expiry update, mimicking an admin winning the race.
type raceConfirmRepo struct {
	booking.Repository
	confirmID booking.BookingID
	at        time.Time
}

func (r *raceConfirmRepo) ExpirePending(ctx context.Context, propertyID string, cutoff time.Time, note string, now time.Time) (int64, error) {
	if _, err := r.Repository.UpdateStatusIf(ctx, r.confirmID, booking.StatusPending, booking.StatusConfirmed, r.at); err != nil {
		return 0, err
	}
	return r.Repository.ExpirePending(ctx, propertyID, cutoff, note, now)
}

func TestSweepReportsOnlyActuallyCancelled(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f, _ := newReclaimerFixture(t, at)
	ctx := context.Background()

	seedPending(t, f, "b-expired", 1, 30*time.Hour, at)
	saved := seedPending(t, f, "b-saved", 10, 30*time.Hour, at)

	racing := &raceConfirmRepo{Repository: f.bookings, confirmID: saved.ID, at: at}
	r := NewReclaimer(slog.New(slog.DiscardHandler), racing, f.properties)
	r.now = func() time.Time { return at }

	result, err := r.Sweep(ctx, testPropertyID)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if result.Affected != 1 {
		t.Fatalf("Affected = %d, want 1", result.Affected)
	}
	if len(result.Cancelled) != 1 || result.Cancelled[0].BookingID != "b-expired" {
		t.Errorf("Cancelled = %+v, want just b-expired", result.Cancelled)
	}

	got, err := f.bookings.ByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Status != booking.StatusConfirmed {
		t.Errorf("saved booking status = %s, want confirmed", got.Status)
	}
}

func TestSweepReleasesDatesForRebooking(t *testing.T) {
	at := time.Now().UTC()
	f, r := newReclaimerFixture(t, at)
	ctx := context.Background()
	seedPending(t, f, "b-stale", 1, 30*time.Hour, at)

	if _, err := r.Sweep(ctx, testPropertyID); err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}

	input := createInput(1, 3)
	input.StartDate = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	input.EndDate = time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	if _, err := f.svc.Create(ctx, input); err != nil {
		t.Errorf("Create() over reclaimed dates error = %v, want success", err)
	}
}

func TestSweepUnknownProperty(t *testing.T) {
	_, r := newReclaimerFixture(t, time.Now().UTC())
	if _, err := r.Sweep(context.Background(), "ghost"); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("Sweep(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestSweepAll(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f, r := newReclaimerFixture(t, at)
	ctx := context.Background()
	seedPending(t, f, "b-stale", 1, 30*time.Hour, at)

	results, err := r.SweepAll(ctx)
	if err != nil {
		t.Fatalf("SweepAll() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SweepAll() returned %d results, want 1", len(results))
	}
	if results[0].Affected != 1 {
		t.Errorf("Affected = %d, want 1", results[0].Affected)
	}
}
