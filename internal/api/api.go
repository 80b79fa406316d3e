package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"snapstream/internal/database"
	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"
	"snapstream/internal/startup"
	"snapstream/internal/store"
)

// Handlers serves the persistence API over the SQLite database.
type Handlers struct {
	db    *database.Database
	start time.Time
}

// New creates the API handler set.
func New(db *database.Database) *Handlers {
	return &Handlers{db: db, start: time.Now()}
}

// Router builds the persistence API route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/media", h.ListMedia).Methods("GET")
	api.HandleFunc("/media", h.CreateMedia).Methods("POST")
	api.HandleFunc("/media/{id}", h.GetMedia).Methods("GET")
	api.HandleFunc("/media/{id}", h.DeleteMedia).Methods("DELETE")
	api.HandleFunc("/media/{id}/analysis", h.UpdateAnalysis).Methods("PUT")
	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/register", h.Register).Methods("POST")
	api.HandleFunc("/users", h.ListUsers).Methods("GET")

	return r
}

// ListMedia returns records visible to the requesting user.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	isAdmin, _ := strconv.ParseBool(r.URL.Query().Get("is_admin"))

	items, err := h.db.ListItems(r.Context(), ownerID, isAdmin)
	if err != nil {
		logging.Error("Failed to list media: %v", err)
		writeJSONError(w, "failed to list media", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, items)
}

// CreateMedia stores a new record. Missing ids and dates are filled in
// server-side so thin clients stay simple.
func (h *Handlers) CreateMedia(w http.ResponseWriter, r *http.Request) {
	var item media.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if item.Name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.UploadDate == "" {
		item.UploadDate = time.Now().UTC().Format(time.RFC3339)
	}
	if item.Type == "" {
		item.Type = media.DetectType(item.Name)
	}
	if item.Status == "" {
		item.Status = media.StatusPending
	}

	if err := h.db.CreateItem(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeJSONError(w, "media item already exists", http.StatusConflict)
			return
		}
		logging.Error("Failed to create media item: %v", err)
		writeJSONError(w, "failed to create media item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, item)
}

// GetMedia returns a single record by id.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.db.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, "media item not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get media item %s: %v", id, err)
		writeJSONError(w, "failed to get media item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, item)
}

// UpdateAnalysis attaches analysis results to an existing record.
func (h *Handlers) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var result media.AnalysisResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateAnalysis(r.Context(), id, &result); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, "media item not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to update analysis for %s: %v", id, err)
		writeJSONError(w, "failed to update analysis", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "updated")
}

// DeleteMedia removes a record.
func (h *Handlers) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.db.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, "media item not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to delete media item %s: %v", id, err)
		writeJSONError(w, "failed to delete media item", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "deleted")
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login verifies credentials against the user table.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.Authenticate(r.Context(), req.Email, req.Password)
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

// Register creates a new account. Requested roles other than admin are
// normalized to user.
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

	role := media.RoleUser
	if req.Role == string(media.RoleAdmin) {
		role = media.RoleAdmin
	}

	user, err := h.db.CreateUser(r.Context(), "user-"+uuid.NewString(), req.Name, req.Email, req.Password, role)
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

// ListUsers returns all accounts, without credential material.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		logging.Error("Failed to list users: %v", err)
		writeJSONError(w, "failed to list users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, users)
}

// HealthCheck reports service health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":       "healthy",
		"version":      startup.Version,
		"uptime":       time.Since(h.start).Round(time.Second).String(),
		"goVersion":    runtime.Version(),
		"numGoroutine": runtime.NumGoroutine(),
	})
}

// LivenessCheck reports process liveness.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "alive")
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}
