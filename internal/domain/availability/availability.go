package availability

import (
	"sort"
	"time"

	"github.com/yuzpew2/casadbendang/internal/domain/booking"
	"github.com/yuzpew2/casadbendang/internal/domain/shared/daterange"
)

// BlockedDates derives the set of calendar dates a new stay cannot start on
// or span, from the property's current bookings. Only date-holding statuses
// count; each booking blocks [start, end) so checkout days stay bookable.
// The result is sorted with duplicates collapsed.
func BlockedDates(bookings []*booking.Booking) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, b := range bookings {
		if !b.Status.HoldsDates() {
			continue
		}
		for _, day := range b.Range.Days() {
			seen[day] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for day := range seen {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// HasConflict reports whether the candidate range overlaps any date-holding
// booking. This predicate and daterange.Overlaps are the single source of
// truth for conflicts; the repositories' create guards apply the same
// half-open test.
func HasConflict(bookings []*booking.Booking, candidate daterange.DateRange) bool {
	for _, b := range bookings {
		if !b.Status.HoldsDates() {
			continue
		}
		if b.Range.Overlaps(candidate) {
			return true
		}
	}
	return false
}
