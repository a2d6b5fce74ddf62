package http

import (
	"net/http"
	"strconv"
	"strings"

	"paga/internal/core"
	"paga/internal/log"
	"paga/internal/storage"
)

func totalKey(uid string, year, month int) string {
	return uid + "-" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateTotal(uid string, year, month int) {
	s.totalsCache.Delete(totalKey(uid, year, month))
}

// handleSalaryTotal computes a month total. Without overrides the
// profile's own tax and currency settings apply and the result is
// cached until the next committed change.
func (s *Server) handleSalaryTotal(w http.ResponseWriter, r *http.Request, u storage.User) {
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

	q := r.URL.Query()
	taxEnabled := p.TaxEnabled
	taxPct := p.TaxPct
	convert := p.Currency == core.CurrencyConverted
	overridden := false

	if v := strings.TrimSpace(q.Get("tax")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			taxEnabled = b
			overridden = true
		}
	}
	if v := strings.TrimSpace(q.Get("taxPct")); v != "" {
		taxPct = core.ParseBonus(v)
		overridden = true
	}
	if v := strings.TrimSpace(q.Get("convert")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			convert = b
			overridden = true
		}
	}

	currency := core.CurrencyNative
	if convert {
		currency = core.CurrencyConverted
	}

	// Only the selected month's no-override total is cached; that is
	// the one the invalidation hooks track.
	cacheable := !overridden && year == p.Year && month == p.Month
	if cacheable {
		if total, found := s.totalsCache.Get(totalKey(u.UID, year, month)); found {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Total cache hit",
				"uid", u.UID, "year", year, "month", month)
			respondTotal(w, year, month, total, currency)
			return
		}
	}

	total := sess.ComputeTotal(year, month, taxEnabled, taxPct, convert, s.exchangeRate)

	if cacheable {
		s.totalsCache.Set(totalKey(u.UID, year, month), total)
	}
	respondTotal(w, year, month, total, currency)
}

func respondTotal(w http.ResponseWriter, year, month int, total float64, currency core.Currency) {
	respondJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    month,
		"total":    total,
		"currency": currency,
	})
}
