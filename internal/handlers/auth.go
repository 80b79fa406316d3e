package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"
	"snapstream/internal/store"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials through the gateway. A rejection from the
// API is final; only an unreachable API falls back to the offline
// accounts.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.gateway.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUnauthorized) {
			metrics.AuthAttemptsTotal.WithLabelValues("rejected").Inc()
			writeJSONError(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		logging.Error("Login failed for %s: %v", req.Email, err)
		writeJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, user)
}

// Register creates a standard account through the gateway.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.gateway.Register(r.Context(), req.Name, req.Email, req.Password, media.RoleUser)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeJSONError(w, "email already registered", http.StatusConflict)
			return
		}
		logging.Error("Registration failed for %s: %v", req.Email, err)
		writeJSONError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, user)
}

// ListUsers returns all accounts for the admin view.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.gateway.ListUsers(r.Context())
	if err != nil {
		logging.Error("Failed to list users: %v", err)
		writeJSONError(w, "failed to list users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, users)
}
