package http

import (
	"net/http"

	"paga/internal/core"
	"paga/internal/profile"
	"paga/internal/storage"
)

// profileResponse is the settings view of a profile; the calendar is
// served by its own endpoint.
type profileResponse struct {
	HourlyWage   float64       `json:"hourly"`
	Year         int           `json:"year"`
	Month        int           `json:"month"`
	TaxEnabled   bool          `json:"taxEnabled"`
	TaxPct       float64       `json:"taxPct"`
	Currency     core.Currency `json:"currency"`
	ExchangeRate float64       `json:"exchangeRate"`
	BonusRates   []float64     `json:"bonusRates"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}
	p := sess.Profile()
	respondJSON(w, http.StatusOK, profileResponse{
		HourlyWage:   p.HourlyWage,
		Year:         p.Year,
		Month:        p.Month,
		TaxEnabled:   p.TaxEnabled,
		TaxPct:       p.TaxPct,
		Currency:     p.Currency,
		ExchangeRate: s.exchangeRate,
		BonusRates:   core.BonusRates,
	})
}

// handlePutProfile updates wage, selected month and display options.
// Fields absent from the body keep their current value.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	cur := sess.Profile()
	st := profile.Settings{
		HourlyWage: cur.HourlyWage,
		Year:       cur.Year,
		Month:      cur.Month,
		TaxEnabled: cur.TaxEnabled,
		TaxPct:     cur.TaxPct,
		Currency:   cur.Currency,
	}

	if p.Has("hourly") {
		st.HourlyWage = core.ParseHours(p.Get("hourly"))
	}
	if p.Has("year") {
		st.Year = p.GetInt("year", st.Year)
	}
	if p.Has("month") {
		m := p.GetInt("month", st.Month)
		if m < 0 || m > 11 {
			respondServiceError(w, core.ErrInvalidMonth)
			return
		}
		st.Month = m
	}
	if p.Has("taxEnabled") {
		st.TaxEnabled = p.GetBool("taxEnabled")
	}
	if p.Has("taxPct") {
		st.TaxPct = core.ParseBonus(p.Get("taxPct"))
	}
	if p.Has("currency") {
		st.Currency = core.Currency(p.Get("currency"))
	}

	sess.ApplySettings(st)
	s.invalidateTotal(u.UID, st.Year, st.Month)
	s.invalidateTotal(u.UID, cur.Year, cur.Month)

	s.handleGetProfile(w, r, u)
}

// handleCalendar serves one month of the calendar. Defaults to the
// profile's selected month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	p := sess.Profile()
	year, month := parseYearMonth(r, p.Year, p.Month)
	if month < 0 || month > 11 {
		respondServiceError(w, core.ErrInvalidMonth)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"year":        year,
		"month":       month,
		"daysInMonth": core.DaysInMonth(year, month),
		"days":        sess.MonthEntries(year, month),
	})
}
