package filter

import (
	"fmt"
	"time"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

// Date is a calendar day without a time zone. It is placed into the
// reviewer's zone only when compared against an order timestamp.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads a YYYY-MM-DD value.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) startIn(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// endIn is 23:59:59 sharp; anything later in the second is outside the day.
func (d Date) endIn(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, loc)
}

// DateKind enumerates the supported date facet shapes.
type DateKind int

const (
	DateNone DateKind = iota
	DateSingle
	DateRange
	DateMonth
)

func (k DateKind) String() string {
	switch k {
	case DateSingle:
		return "single"
	case DateRange:
		return "range"
	case DateMonth:
		return "month"
	default:
		return "none"
	}
}

// DateFilter is one of none, single(date), range(from, to) or month(year, month).
type DateFilter struct {
	kind  DateKind
	from  Date
	to    Date
	year  int
	month time.Month
}

// NoDate disables the date facet.
func NoDate() DateFilter { return DateFilter{} }

// On matches orders created on the given calendar day.
func On(d Date) DateFilter { return DateFilter{kind: DateSingle, from: d, to: d} }

// Between matches orders created from the start of from to 23:59:59 of to, inclusive.
func Between(from, to Date) DateFilter { return DateFilter{kind: DateRange, from: from, to: to} }

// InMonth matches orders created within the given month.
func InMonth(year int, month time.Month) DateFilter {
	return DateFilter{kind: DateMonth, year: year, month: month}
}

// Kind reports the facet shape.
func (f DateFilter) Kind() DateKind { return f.kind }

// Bounds returns the inclusive day range for single and range filters.
func (f DateFilter) Bounds() (Date, Date) { return f.from, f.to }

// Month returns the (year, month) tuple of a month filter.
func (f DateFilter) Month() (int, time.Month) { return f.year, f.month }

func (f DateFilter) predicate(loc *time.Location) Predicate {
	switch f.kind {
	case DateSingle:
		day := f.from
		return func(o *entity.Order) bool {
			return DateOf(o.CreatedAt.In(loc)) == day
		}
	case DateRange:
		start, end := f.from.startIn(loc), f.to.endIn(loc)
		return func(o *entity.Order) bool {
			return !o.CreatedAt.Before(start) && !o.CreatedAt.After(end)
		}
	case DateMonth:
		year, month := f.year, f.month
		return func(o *entity.Order) bool {
			local := o.CreatedAt.In(loc)
			return local.Year() == year && local.Month() == month
		}
	default:
		return nil
	}
}
