package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/property"
)

// Reclaimer auto-cancels pending bookings that outlived the property's
// response window, releasing their calendar hold. The sweep is idempotent
// and safe to run concurrently from any trigger (cron binary, guarded HTTP
// route, admin dashboard load): the store update only touches rows still
// pending at write time, so a booking confirmed an instant earlier stays
// confirmed.
type Reclaimer struct {
	log        *slog.Logger
	bookings   booking.Repository
	properties property.Repository
	now        func() time.Time
}

func NewReclaimer(log *slog.Logger, bookings booking.Repository, properties property.Repository) *Reclaimer {
	return &Reclaimer{
		log:        log,
		bookings:   bookings,
		properties: properties,
		now:        time.Now,
	}
}

// CancelledSummary identifies one reclaimed booking for the sweep report.
type CancelledSummary struct {
	BookingID string    `json:"id"`
	GuestName string    `json:"guest,omitempty"`
	StartDate time.Time `json:"date"`
}

type SweepResult struct {
	PropertyID   string             `json:"property_id"`
	TimeoutHours int                `json:"timeout_hours"`
	Affected     int64              `json:"affected"`
	Cancelled    []CancelledSummary `json:"cancelled,omitempty"`
	CheckedAt    time.Time          `json:"checked_at"`
}

// Sweep cancels the property's expired pending bookings and reports how
// many were reclaimed. Rows that change status between the candidate read
// and the guarded update simply fall out of the filter; the sweep reports
// the partial count rather than failing.
func (r *Reclaimer) Sweep(ctx context.Context, propertyID string) (SweepResult, error) {
	prop, err := r.properties.ByID(ctx, propertyID)
	if err != nil {
		return SweepResult{}, mapPropertyErr(err)
	}

	hours := prop.TimeoutHours()
	now := r.now().UTC()
	cutoff := now.Add(-time.Duration(hours) * time.Hour)

	candidates, err := r.bookings.ListPendingBefore(ctx, prop.ID, cutoff)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{PropertyID: prop.ID, TimeoutHours: hours, CheckedAt: now}
	if len(candidates) == 0 {
		return result, nil
	}

	note := fmt.Sprintf("Auto-cancelled: No response within %d hours", hours)
	affected, err := r.bookings.ExpirePending(ctx, prop.ID, cutoff, note, now)
	if err != nil {
		return SweepResult{}, err
	}
	result.Affected = affected
	reclaimed := candidates
	if affected != int64(len(candidates)) {
		r.log.Warn("some pending bookings changed status before the sweep reached them",
			"property_id", prop.ID, "candidates", len(candidates), "affected", affected)
		// A candidate a concurrent confirmation saved must not be reported
		// as cancelled; keep only rows the guarded update actually moved.
		reclaimed = make([]*booking.Booking, 0, affected)
		for _, b := range candidates {
			current, err := r.bookings.ByID(ctx, b.ID)
			if err != nil || current.Status != booking.StatusCancelled {
				continue
			}
			reclaimed = append(reclaimed, current)
		}
	}
	for _, b := range reclaimed {
		result.Cancelled = append(result.Cancelled, CancelledSummary{
			BookingID: string(b.ID),
			GuestName: b.GuestName,
			StartDate: b.Range.Start,
		})
	}
	r.log.Info("expired pending bookings reclaimed",
		"property_id", prop.ID, "affected", affected, "timeout_hours", hours)
	return result, nil
}

// SweepAll runs the sweep for every property, continuing past per-property
// failures so one broken row set cannot block the rest.
func (r *Reclaimer) SweepAll(ctx context.Context) ([]SweepResult, error) {
	props, err := r.properties.List(ctx)
	if err != nil {
		return nil, err
	}
	var (
		results []SweepResult
		errs    []error
	)
	for _, prop := range props {
		result, err := r.Sweep(ctx, prop.ID)
		if err != nil {
			r.log.Error("sweep failed", "property_id", prop.ID, "error", err)
			errs = append(errs, fmt.Errorf("property %s: %w", prop.ID, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}
