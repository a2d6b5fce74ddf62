package http

import (
	"net/http"
	"strconv"

	"paga/internal/core"
	"paga/internal/services"
	"paga/internal/storage"
)

// dayResponse is the state of the open day-edit session.
type dayResponse struct {
	Day     int              `json:"day"`
	Entries []core.WorkEntry `json:"entries"`
}

func (s *Server) respondOpenDay(w http.ResponseWriter, sess *services.Session) {
	day, ok := sess.OpenedDay()
	if !ok {
		respondError(w, http.StatusConflict, "no day is open")
		return
	}
	entries, err := sess.StagedEntries()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []core.WorkEntry{}
	}
	respondJSON(w, http.StatusOK, dayResponse{Day: day, Entries: entries})
}

// handleOpenDay starts editing one day of the selected month.
func (s *Server) handleOpenDay(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	day := p.GetInt("day", 0)

	if err := sess.OpenDay(day); err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondOpenDay(w, sess)
}

// handleGetDay returns the staged entries of the open day.
func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}
	s.respondOpenDay(w, sess)
}

// handleAddEntry appends a zero-hour entry with the day's default
// bonus rate.
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}
	if err := sess.AddEntry(); err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondOpenDay(w, sess)
}

// handleUpdateEntry replaces one staged entry. Hours and bonus arrive
// as text and tolerate the comma decimal separator.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "entry index must be a number")
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	hours := core.ParseHours(p.Get("hours"))
	bonus := core.ParseBonus(p.Get("bonus"))

	if err := sess.UpdateEntry(idx, hours, bonus); err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondOpenDay(w, sess)
}

// handleRemoveEntry drops one staged entry.
func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "entry index must be a number")
		return
	}

	if err := sess.RemoveEntry(idx); err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondOpenDay(w, sess)
}

// handleSaveDay commits the staged entries and invalidates the cached
// month total.
func (s *Server) handleSaveDay(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}

	if err := sess.SaveDay(); err != nil {
		respondServiceError(w, err)
		return
	}

	p := sess.Profile()
	s.invalidateTotal(u.UID, p.Year, p.Month)

	respondJSON(w, http.StatusOK, map[string]any{
		"year":  p.Year,
		"month": p.Month,
		"days":  sess.MonthEntries(p.Year, p.Month),
	})
}

// handleCancelDay discards the staged entries.
func (s *Server) handleCancelDay(w http.ResponseWriter, r *http.Request, u storage.User) {
	sess, ok := s.session(w, r, u)
	if !ok {
		return
	}
	if err := sess.CancelDay(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}
