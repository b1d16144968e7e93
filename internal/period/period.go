// Package period provides the calendar-month value type used to key snapshots,
// closure checks and monthly aggregation.
package period

import (
	"fmt"
	"time"
)

// Month identifies one calendar month. All derived instants are in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// New returns the month for the given year and month number.
func New(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// Of returns the month containing t.
func Of(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// Start is midnight of the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last instant of the month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// LastDay is midnight of the last day of the month.
func (m Month) LastDay() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return Of(t) == m
}

// Prev returns the month before m.
func (m Month) Prev() Month {
	return Of(m.Start().AddDate(0, -1, 0))
}

// Next returns the month after m.
func (m Month) Next() Month {
	return Of(m.Start().AddDate(0, 1, 0))
}


// Between returns the whole-month difference to-from over (year, month) pairs.
// Days are ignored: Between(2025-01, 2025-06) is 5.
func Between(from, to Month) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month)
}

// Valid reports whether the month number is in range.
func (m Month) Valid() bool {
	return m.Month >= time.January && m.Month <= time.December && m.Year > 0
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Parse reads a YYYY-MM string.
func Parse(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return Of(t), nil
}

// Clock returns the current time. Engines take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
