package core

// MonthSummary is a compact settled view of one user month, the row
// shape exported to the summary spreadsheet.
type MonthSummary struct {
	UID        string
	Year       int
	Month      int // 0-11
	DaysWorked int
	Hours      float64
	Total      float64
}

// Summarize builds a MonthSummary from a month's entries using the
// profile's wage and tax settings (never the converted currency: the
// exported figure is always native).
func Summarize(uid string, year, month int, entries MonthEntries, p *Profile) MonthSummary {
	s := MonthSummary{UID: uid, Year: year, Month: month}
	for _, dayEntries := range entries {
		if len(dayEntries) == 0 {
			continue
		}
		s.DaysWorked++
		for _, e := range dayEntries {
			s.Hours += e.Hours
		}
	}
	s.Total = ComputeTotal(entries, TotalParams{
		DaysInMonth: DaysInMonth(year, month),
		HourlyWage:  p.HourlyWage,
		TaxEnabled:  p.TaxEnabled,
		TaxPct:      p.TaxPct,
	})
	return s
}
