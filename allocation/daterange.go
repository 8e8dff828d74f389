/*
daterange.go - Calendar dates and interval overlap

PURPOSE:
  Allocations live on day-granularity date ranges, optionally open-ended.
  This file provides the Date type (UTC midnight, day precision) and the
  single overlap predicate that underlies every capacity and conflict check
  in the engine.

OPEN-ENDED RANGES:
  A nil end date means "no scheduled end" and is treated as positive
  infinity. An open-ended allocation overlaps anything that starts on or
  after its own start.

THE PREDICATE:
  RangesOverlap(startA, endA, startB, endB) is true iff
    startA <= endB AND startB <= endA
  with a missing end read as +inf. Both boundaries are inclusive. A
  point-in-range check is the same predicate with a degenerate range
  (start == end).

SEE ALSO:
  - capacity.go: window membership for capacity sums
  - overlap.go: project-level conflict detection
*/
package allocation

import "time"

// =============================================================================
// DATE - Day-granularity calendar date (UTC)
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

func (d Date) IsZero() bool   { return d.Time.IsZero() }
func (d Date) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// DATE RANGE - [Start, End] interval, End nil = open-ended
// =============================================================================

// DateRange is an inclusive date interval. A nil End means the range has no
// scheduled end and extends indefinitely.
type DateRange struct {
	Start Date
	End   *Date
}

// NewRange builds a bounded range.
func NewRange(start, end Date) DateRange {
	return DateRange{Start: start, End: &end}
}

// OpenRange builds an open-ended range starting at start.
func OpenRange(start Date) DateRange {
	return DateRange{Start: start}
}

// On builds the degenerate range covering a single day. Used for
// point-in-time capacity queries ("as of today").
func On(day Date) DateRange {
	return NewRange(day, day)
}

// Valid reports whether Start <= End (always true when open-ended).
func (r DateRange) Valid() bool {
	return r.End == nil || r.Start.BeforeOrEqual(*r.End)
}

// Overlaps reports whether the two ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return RangesOverlap(r.Start, r.End, other.Start, other.End)
}

// Contains reports whether the day falls inside the range.
func (r DateRange) Contains(day Date) bool {
	return RangesOverlap(r.Start, r.End, day, &day)
}

func (r DateRange) String() string {
	if r.End == nil {
		return "[" + r.Start.String() + ", open)"
	}
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// RangesOverlap is the core interval predicate: true iff
// startA <= endB && startB <= endA, where a nil end reads as +inf.
// Pure and total; every overlap and window-membership check in the
// engine reduces to this.
func RangesOverlap(startA Date, endA *Date, startB Date, endB *Date) bool {
	if endB != nil && endB.Before(startA) {
		return false
	}
	if endA != nil && endA.Before(startB) {
		return false
	}
	return true
}
