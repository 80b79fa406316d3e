package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"snapstream/internal/pipeline"
	"snapstream/internal/startup"
	"snapstream/internal/store"
	"snapstream/internal/thumbnail"
)

// Handlers serves the front-end application API. All persistence goes
// through the gateway so the app keeps working when the API service is
// down.
type Handlers struct {
	gateway  *store.Gateway
	pipe     *pipeline.Pipeline
	notifier *pipeline.MemoryNotifier
	thumbs   *thumbnail.Extractor
	mediaDir string
	start    time.Time
}

// New creates the application handler set.
func New(gateway *store.Gateway, pipe *pipeline.Pipeline, notifier *pipeline.MemoryNotifier, thumbs *thumbnail.Extractor, config *startup.Config) *Handlers {
	return &Handlers{
		gateway:  gateway,
		pipe:     pipe,
		notifier: notifier,
		thumbs:   thumbs,
		mediaDir: config.MediaDir,
		start:    time.Now(),
	}
}

// Router builds the application route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.Upload).Methods("POST")
	api.HandleFunc("/media", h.ListMedia).Methods("GET")
	api.HandleFunc("/media/{id}", h.DeleteMedia).Methods("DELETE")
	api.HandleFunc("/media/{id}/analysis", h.UpdateAnalysis).Methods("PUT")
	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/register", h.Register).Methods("POST")
	api.HandleFunc("/users", h.ListUsers).Methods("GET")
	api.HandleFunc("/notifications", h.GetNotifications).Methods("GET")
	api.HandleFunc("/thumbnail/{name}", h.GetThumbnail).Methods("GET")

	r.PathPrefix("/media/").Handler(
		http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir))))

	return r
}
