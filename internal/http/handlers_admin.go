package http

import (
	"net/http"

	"paga/internal/storage"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ storage.User) {
	users, err := s.admin.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, _ storage.User) {
	uid := r.PathValue("uid")
	if err := s.admin.Approve(r.Context(), uid); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"uid": uid, "status": storage.StatusApproved})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, _ storage.User) {
	uid := r.PathValue("uid")
	if err := s.admin.Reject(r.Context(), uid); err != nil {
		respondServiceError(w, err)
		return
	}
	// A rejected user loses any live session immediately.
	s.sessions.Evict(uid)
	respondJSON(w, http.StatusOK, map[string]string{"uid": uid, "status": storage.StatusRejected})
}
