package core

import (
	"errors"
	"time"
)

// Currency selects how a computed total is displayed.
const (
	CurrencyNative    Currency = "native"
	CurrencyConverted Currency = "converted"
)

type (
	Currency string

	// WorkEntry is one shift worked on a single day: hours plus a bonus
	// multiplier applied against the base pay for those hours.
	WorkEntry struct {
		Hours float64 `json:"hours"`
		Bonus float64 `json:"bonus"`
	}

	// MonthEntries maps day-of-month (1..days in month) to the ordered
	// entries recorded for that day. Absent day == no entries.
	MonthEntries map[int][]WorkEntry

	// CalendarData maps year -> month (0-11) -> MonthEntries. Only
	// touched months are present.
	CalendarData map[int]map[int]MonthEntries

	// Profile is the full per-user record kept in memory for a session.
	Profile struct {
		HourlyWage float64
		Year       int
		Month      int // 0-11
		TaxEnabled bool
		TaxPct     float64
		Currency   Currency
		Calendar   CalendarData
	}
)

// BonusRates is the fixed set of allowed bonus multipliers. WeekendBonus
// may only be attached to entries on a Saturday or Sunday; that rule is
// enforced at the edit boundary, never re-checked on stored data.
var BonusRates = []float64{0, 0.3, 0.5, WeekendBonus}

const (
	WeekendBonus = 2.0

	// DefaultTaxPct is the tax percentage preselected for new profiles.
	DefaultTaxPct = 33.5
)

var (
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidBonus = errors.New("invalid bonus rate")
)

// DaysInMonth returns the number of days in the given month (0-11).
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsWeekend reports whether the given day of month (month 0-11) falls
// on a Saturday or Sunday.
func IsWeekend(year, month, day int) bool {
	wd := time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DefaultBonus returns the bonus rate preselected for a new entry.
func DefaultBonus(weekend bool) float64 {
	if weekend {
		return WeekendBonus
	}
	return 0
}

// ValidBonus reports whether rate is an allowed multiplier for a day.
// The weekend-only rate is rejected on weekdays.
func ValidBonus(rate float64, weekend bool) bool {
	for _, r := range BonusRates {
		if r == rate {
			return r != WeekendBonus || weekend
		}
	}
	return false
}

// ValidateDay checks a day against the calendar month it belongs to.
func ValidateDay(year, month, day int) error {
	if month < 0 || month > 11 {
		return ErrInvalidMonth
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return ErrInvalidDay
	}
	return nil
}

// CloneEntries returns an independent copy of a day's entry list.
func CloneEntries(entries []WorkEntry) []WorkEntry {
	if entries == nil {
		return nil
	}
	out := make([]WorkEntry, len(entries))
	copy(out, entries)
	return out
}

// CloneMonth returns an independent copy of a month's day mapping.
func CloneMonth(m MonthEntries) MonthEntries {
	out := make(MonthEntries, len(m))
	for day, entries := range m {
		out[day] = CloneEntries(entries)
	}
	return out
}
