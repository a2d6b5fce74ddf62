// Package core holds the salary domain: work entries, the sparse
// calendar mapping and the pure monthly total computation.
package core

// TotalParams carries the configuration for a monthly total.
type TotalParams struct {
	DaysInMonth int
	HourlyWage  float64
	TaxEnabled  bool
	TaxPct      float64 // percentage 0-100, deliberately not clamped
	Convert     bool
	Rate        float64 // exchange rate applied when Convert is set
}

// ComputeTotal computes the compensation for one month of entries.
//
// Each entry contributes hours*wage plus hours*wage*bonus; entries are
// independent and summed linearly, the bonus never compounds across
// entries of the same day. Tax, when enabled, scales the full-month sum
// by (1 - pct/100); conversion is applied after tax. No rounding is
// performed here, display rounding is a presentation concern.
//
// TaxPct is passed through as-is: values outside [0,100] inflate or
// negate the total. The function is total and side-effect free.
func ComputeTotal(entries MonthEntries, p TotalParams) float64 {
	var sum float64
	for d := 1; d <= p.DaysInMonth; d++ {
		for _, e := range entries[d] {
			base := e.Hours * p.HourlyWage
			sum += base + base*e.Bonus
		}
	}
	if p.TaxEnabled {
		sum *= 1 - p.TaxPct/100
	}
	if p.Convert {
		sum *= p.Rate
	}
	return sum
}

// MonthTotal computes the total for the profile's stored month using
// its own tax and currency settings.
func (pr *Profile) MonthTotal(rate float64) float64 {
	var entries MonthEntries
	if months, ok := pr.Calendar[pr.Year]; ok {
		entries = months[pr.Month]
	}
	return ComputeTotal(entries, TotalParams{
		DaysInMonth: DaysInMonth(pr.Year, pr.Month),
		HourlyWage:  pr.HourlyWage,
		TaxEnabled:  pr.TaxEnabled,
		TaxPct:      pr.TaxPct,
		Convert:     pr.Currency == CurrencyConverted,
		Rate:        rate,
	})
}
