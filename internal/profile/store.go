package profile

import (
	"time"

	"paga/internal/core"
)

// Store is the single source of truth for one user's profile during a
// session. It is explicitly constructed when the identity becomes
// known and torn down on sign-out; it is not safe for concurrent use,
// the owning session serializes access.
type Store struct {
	profile  core.Profile
	hydrated bool
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Hydrate loads the raw persisted record (nil for an absent record)
// into the store, upgrading the legacy schema in memory. It never
// fails: malformed input degrades to a default profile. Hydrating
// marks the store ready for persistence.
func (s *Store) Hydrate(raw []byte) core.Profile {
	s.profile = decodeProfile(raw, s.now())
	s.hydrated = true
	return s.profile
}

// Hydrated reports whether the initial load has completed. Persistence
// is gated on this flag so an in-flight load can never be overwritten
// by a write-back of default data.
func (s *Store) Hydrated() bool {
	return s.hydrated
}

// Profile returns the current profile. The calendar maps are shared
// with the store; use Snapshot for an independent copy.
func (s *Store) Profile() core.Profile {
	return s.profile
}

// Snapshot returns a deep copy of the profile, safe to hand to an
// asynchronous persistence call.
func (s *Store) Snapshot() core.Profile {
	p := s.profile
	cal := make(core.CalendarData, len(s.profile.Calendar))
	for year, months := range s.profile.Calendar {
		cal[year] = make(map[int]core.MonthEntries, len(months))
		for month, entries := range months {
			cal[year][month] = core.CloneMonth(entries)
		}
	}
	p.Calendar = cal
	return p
}

// Encode marshals the profile in the current persisted schema.
func (s *Store) Encode() ([]byte, error) {
	return encodeProfile(&s.profile)
}

// MonthEntries returns a copy of the day mapping for (year, month),
// empty when absent. It never mutates the store.
func (s *Store) MonthEntries(year, month int) core.MonthEntries {
	months, ok := s.profile.Calendar[year]
	if !ok {
		return core.MonthEntries{}
	}
	entries, ok := months[month]
	if !ok {
		return core.MonthEntries{}
	}
	return core.CloneMonth(entries)
}

// SetMonthEntries replaces the mapping for exactly (year, month),
// leaving every other year and month untouched. Empty mappings are
// removed rather than stored, keeping the calendar sparse.
func (s *Store) SetMonthEntries(year, month int, entries core.MonthEntries) {
	if s.profile.Calendar == nil {
		s.profile.Calendar = core.CalendarData{}
	}
	if len(entries) == 0 {
		if months, ok := s.profile.Calendar[year]; ok {
			delete(months, month)
			if len(months) == 0 {
				delete(s.profile.Calendar, year)
			}
		}
		return
	}
	months, ok := s.profile.Calendar[year]
	if !ok {
		months = make(map[int]core.MonthEntries)
		s.profile.Calendar[year] = months
	}
	months[month] = core.CloneMonth(entries)
}

// CommitDayEdits replaces one day's entry list with the hours > 0
// subset of entries, in original order. An empty result removes the
// day key; absence and empty are equivalent for totals.
func (s *Store) CommitDayEdits(year, month, day int, entries []core.WorkEntry) {
	kept := make([]core.WorkEntry, 0, len(entries))
	for _, e := range entries {
		if e.Hours > 0 {
			kept = append(kept, e)
		}
	}

	updated := s.MonthEntries(year, month)
	if len(kept) == 0 {
		delete(updated, day)
	} else {
		updated[day] = kept
	}
	s.SetMonthEntries(year, month, updated)
}

// Settings is the editable non-calendar part of the profile.
type Settings struct {
	HourlyWage float64
	Year       int
	Month      int
	TaxEnabled bool
	TaxPct     float64
	Currency   core.Currency
}

// ApplySettings updates wage, selected month and display options. The
// calendar is untouched.
func (s *Store) ApplySettings(st Settings) {
	s.profile.HourlyWage = st.HourlyWage
	s.profile.Year = st.Year
	s.profile.Month = st.Month
	s.profile.TaxEnabled = st.TaxEnabled
	s.profile.TaxPct = st.TaxPct
	if st.Currency == core.CurrencyConverted {
		s.profile.Currency = core.CurrencyConverted
	} else {
		s.profile.Currency = core.CurrencyNative
	}
}
