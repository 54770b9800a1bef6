package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: end date must be after start date")

// DateRange represents a stay as a half-open interval [start, end).
// The end date is the checkout day and is not occupied, so a new stay may
// start on the same day another one ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Midnight(start), End: Midnight(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

// Overlaps reports whether two ranges share at least one occupied night.
// Touching endpoints (back-to-back stays) do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Midnight(t)
	return !t.Before(dr.Start) && t.Before(dr.End)
}

// Days enumerates every occupied date of the range, start inclusive,
// end (checkout day) exclusive.
func (dr DateRange) Days() []time.Time {
	var days []time.Time
	for d := dr.Start; d.Before(dr.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Midnight truncates a timestamp to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
