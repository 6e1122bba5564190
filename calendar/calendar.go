package calendar

import (
	"strings"
	"time"

	"github.com/meenmo/cdslib/errs"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	WeekendOnly CalendarID = "WEEKEND"
	USD         CalendarID = "USD"
	GBP         CalendarID = "GBP"
	TARGET      CalendarID = "TARGET"
)

// Convention is a business-day adjustment rule.
type Convention string

const (
	Following         Convention = "FOLLOWING"
	ModifiedFollowing Convention = "MODIFIED_FOLLOWING"
	Unadjusted        Convention = "NONE"
)

// ParseConvention maps a convention name from input files; empty means Following.
func ParseConvention(name string) (Convention, error) {
	switch conv := Convention(strings.ToUpper(strings.TrimSpace(name))); conv {
	case "", "F":
		return Following, nil
	case "MF", ModifiedFollowing:
		return ModifiedFollowing, nil
	case Following, Unadjusted:
		return conv, nil
	default:
		return "", errs.InvalidInput("calendar.ParseConvention", "unknown business day convention %q", name)
	}
}

// Calendar is a weekend rule plus an explicit holiday set.
//
// Holidays are supplied by the caller (trade or market-data input); the zero
// value is a Monday-to-Friday calendar.
type Calendar struct {
	ID       CalendarID
	holidays map[string]struct{}
}

// New builds a calendar from holiday dates.
func New(id CalendarID, holidays ...time.Time) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	return Calendar{ID: id, holidays: set}
}

// Parse maps a calendar name from input files. Any name is accepted; the
// holidays argument is the only source of non-weekend closures.
func Parse(name string, holidays ...time.Time) Calendar {
	id := CalendarID(strings.ToUpper(strings.TrimSpace(name)))
	if id == "" {
		id = WeekendOnly
	}
	return New(id, holidays...)
}

func (c Calendar) isHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay checks weekends and the holiday set.
func (c Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(t)
}

// Adjust applies Modified Following.
func (c Calendar) Adjust(t time.Time) time.Time {
	origMonth := t.Month()
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !c.IsBusinessDay(t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func (c Calendar) AdjustFollowing(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustBy rolls t with the given convention. The zero Convention is Following.
func (c Calendar) AdjustBy(conv Convention, t time.Time) time.Time {
	switch conv {
	case ModifiedFollowing:
		return c.Adjust(t)
	case Unadjusted:
		return t
	default:
		return c.AdjustFollowing(t)
	}
}

// AddBusinessDays advances n business days (n can be negative).
func (c Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}
