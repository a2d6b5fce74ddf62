// Package profile owns a user's in-memory salary profile for the
// duration of a session: hydration from the persisted record including
// the legacy-to-current schema upgrade, month-scoped reads, commit-time
// mutations and the staged day editor.
package profile

import (
	"encoding/json"
	"time"

	"paga/internal/core"
)

// document is the wire shape of the persisted per-user record. Every
// field is optional; consumers accept present, absent, or both calendar
// fields absent.
type document struct {
	Year       *int              `json:"year"`
	Month      *int              `json:"month"`
	Hourly     *float64          `json:"hourly"`
	YearData   core.CalendarData `json:"yearData,omitempty"`
	Days       core.MonthEntries `json:"days,omitempty"`
	TaxEnabled *bool             `json:"taxEnabled,omitempty"`
	TaxPct     *float64          `json:"taxPct,omitempty"`
	Currency   *string           `json:"currency,omitempty"`
}

// calendarSchema is the discriminated variant a raw record's calendar
// resolves to, exactly once, at load time.
type calendarSchema interface {
	// calendar returns the canonical current-shape data. The receiver
	// owns the returned maps.
	calendar() core.CalendarData
}

type (
	// currentSchema carries the nested year -> month -> days mapping.
	currentSchema struct{ data core.CalendarData }

	// legacySchema carries the old flat day mapping scoped to the
	// record's single stored (year, month) pair.
	legacySchema struct {
		year, month int
		days        core.MonthEntries
	}

	// emptySchema is a record with neither calendar field: a
	// legitimately empty calendar, not an error.
	emptySchema struct{}
)

func (s currentSchema) calendar() core.CalendarData {
	if s.data == nil {
		return core.CalendarData{}
	}
	return s.data
}

func (s legacySchema) calendar() core.CalendarData {
	return core.CalendarData{s.year: {s.month: s.days}}
}

func (emptySchema) calendar() core.CalendarData {
	return core.CalendarData{}
}

// classify resolves which schema variant a decoded document carries.
// The current shape wins when both fields are present.
func classify(doc document, year, month int) calendarSchema {
	switch {
	case doc.YearData != nil:
		return currentSchema{data: doc.YearData}
	case doc.Days != nil:
		return legacySchema{year: year, month: month, days: doc.Days}
	default:
		return emptySchema{}
	}
}

// defaultProfile is the profile of a user with no stored record:
// current year and month, zero wage, tax disabled, empty calendar.
func defaultProfile(now time.Time) core.Profile {
	return core.Profile{
		Year:     now.Year(),
		Month:    int(now.Month()) - 1,
		TaxPct:   core.DefaultTaxPct,
		Currency: core.CurrencyNative,
		Calendar: core.CalendarData{},
	}
}

// decodeProfile turns a raw record into a Profile. It never fails:
// malformed JSON or individual fields degrade to defaults field by
// field, and the legacy calendar shape is lifted into the current one.
func decodeProfile(raw []byte, now time.Time) core.Profile {
	p := defaultProfile(now)
	if len(raw) == 0 {
		return p
	}

	var doc document
	// A type error on one field still decodes the rest; whatever
	// parsed is used, the rest keeps its default.
	_ = json.Unmarshal(raw, &doc)

	if doc.Year != nil {
		p.Year = *doc.Year
	}
	if doc.Month != nil && *doc.Month >= 0 && *doc.Month <= 11 {
		p.Month = *doc.Month
	}
	if doc.Hourly != nil && *doc.Hourly >= 0 {
		p.HourlyWage = *doc.Hourly
	}
	if doc.TaxEnabled != nil {
		p.TaxEnabled = *doc.TaxEnabled
	}
	if doc.TaxPct != nil {
		p.TaxPct = *doc.TaxPct
	}
	if doc.Currency != nil && core.Currency(*doc.Currency) == core.CurrencyConverted {
		p.Currency = core.CurrencyConverted
	}

	p.Calendar = classify(doc, p.Year, p.Month).calendar()
	return p
}

// encodeProfile marshals a profile in the current schema. The upgrade
// is one-directional: the legacy flat field is never written back.
func encodeProfile(p *core.Profile) ([]byte, error) {
	taxEnabled := p.TaxEnabled
	currency := string(p.Currency)
	doc := document{
		Year:       &p.Year,
		Month:      &p.Month,
		Hourly:     &p.HourlyWage,
		YearData:   p.Calendar,
		TaxEnabled: &taxEnabled,
		TaxPct:     &p.TaxPct,
		Currency:   &currency,
	}
	if doc.YearData == nil {
		doc.YearData = core.CalendarData{}
	}
	return json.Marshal(doc)
}
