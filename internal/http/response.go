// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON response helpers and the mapping from
// service errors to HTTP statuses.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"paga/internal/auth"
	"paga/internal/core"
	"paga/internal/profile"
	"paga/internal/services"
	"paga/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondServiceError maps known domain and service errors to
// statuses, defaulting to 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrPendingApproval):
		respondError(w, http.StatusForbidden, "account pending approval")
	case errors.Is(err, services.ErrRejected):
		respondError(w, http.StatusForbidden, "account rejected")
	case errors.Is(err, services.ErrUsernameRequired):
		respondError(w, http.StatusUnprocessableEntity, "username is required")
	case errors.Is(err, services.ErrPasswordTooShort):
		respondError(w, http.StatusUnprocessableEntity, "password too short")
	case errors.Is(err, storage.ErrUsernameTaken):
		respondError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrNoPending):
		respondError(w, http.StatusNotFound, "no pending registration")
	case errors.Is(err, auth.ErrCodeExpired):
		respondError(w, http.StatusGone, "verification code expired")
	case errors.Is(err, auth.ErrCodeMismatch):
		respondError(w, http.StatusUnauthorized, "wrong verification code")
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, profile.ErrEditorOpen):
		respondError(w, http.StatusConflict, "another day is already open")
	case errors.Is(err, profile.ErrEditorClosed):
		respondError(w, http.StatusConflict, "no day is open")
	case errors.Is(err, profile.ErrIndexRange):
		respondError(w, http.StatusNotFound, "no entry at that index")
	case errors.Is(err, core.ErrInvalidDay):
		respondError(w, http.StatusUnprocessableEntity, "day outside the month")
	case errors.Is(err, core.ErrInvalidMonth):
		respondError(w, http.StatusUnprocessableEntity, "month must be 0-11")
	case errors.Is(err, core.ErrInvalidBonus):
		respondError(w, http.StatusUnprocessableEntity, "bonus rate not allowed for that day")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
