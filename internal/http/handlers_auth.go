package http

import (
	"net/http"

	"paga/internal/storage"
)

// handleRegister stages a registration and queues the verification
// code for delivery.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	username := p.Get("username")
	password := p.Get("password")

	if err := s.auth.StartRegistration(r.Context(), username, password); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "verification required",
	})
}

// handleVerify completes a staged registration with the emailed code.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	u, err := s.auth.CompleteRegistration(r.Context(), p.Get("username"), p.Get("code"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"uid":      u.UID,
		"username": u.Username,
		"status":   u.Status,
	})
}

// handleLogin verifies credentials and returns a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	token, u, err := s.auth.Login(r.Context(), p.Get("username"), p.Get("password"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"uid":      u.UID,
		"username": u.Username,
		"admin":    s.auth.IsAdmin(u),
	})
}

// handleLogout tears down the caller's session; pending edits are
// discarded, committed state is already persisted.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, u storage.User) {
	s.sessions.Evict(u.UID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// handleDeleteAccount removes the account, its record and session.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, u storage.User) {
	if err := s.profiles.DeleteUserData(r.Context(), u.UID); err != nil {
		s.logger.ErrorContext(r.Context(), "Record cleanup failed", "uid", u.UID, "error", err)
		respondError(w, http.StatusInternalServerError, "account deletion failed")
		return
	}
	if err := s.auth.DeleteAccount(r.Context(), u.UID); err != nil {
		respondServiceError(w, err)
		return
	}
	s.sessions.Evict(u.UID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}
