package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/pipeline"
	"snapstream/internal/store"
)

// Uploads above this size are rejected before processing starts.
const maxUploadSize = 500 << 20

// Upload accepts a multipart file, stores it in the media directory
// and runs it through the processing pipeline. The response carries
// the final item: completed with its analysis attached, or failed.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ownerID := r.FormValue("owner_id")
	if ownerID == "" {
		writeJSONError(w, "owner_id field is required", http.StatusBadRequest)
		return
	}

	profile := media.Profile(r.FormValue("profile"))
	if profile != "" && !media.ValidProfile(profile) {
		writeJSONError(w, "unknown analysis profile", http.StatusBadRequest)
		return
	}
	if profile == "" {
		profile = media.ProfileNewsArchive
	}

	name := sanitizeFileName(header.Filename)
	if name == "" {
		writeJSONError(w, "invalid file name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.mediaDir, name)
	if _, err := os.Stat(path); err == nil {
		// Keep both copies; uniquify rather than overwrite.
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "-" + uuid.NewString()[:8] + ext
		path = filepath.Join(h.mediaDir, name)
	}

	size, err := saveUpload(path, file)
	if err != nil {
		logging.Error("Failed to store upload %s: %v", name, err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	item, err := h.pipe.Process(r.Context(), pipeline.Upload{
		FilePath:  path,
		FileName:  name,
		Size:      size,
		MediaType: media.DetectType(name),
		Profile:   profile,
		OwnerID:   ownerID,
		URL:       "/media/" + name,
	})
	if err != nil {
		// No item means processing never started (cancelled request);
		// otherwise the failed item is returned so the client can show
		// its state. Errors here mean persistence died entirely.
		if item == nil {
			writeJSONError(w, "failed to process upload", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, item)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, item)
}

// ListMedia returns items visible to the requesting user, optionally
// filtered by a q= substring match on name and labels.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	isAdmin, _ := strconv.ParseBool(r.URL.Query().Get("is_admin"))

	items, err := h.gateway.ListItems(r.Context(), ownerID, isAdmin)
	if err != nil {
		logging.Error("Failed to list media: %v", err)
		writeJSONError(w, "failed to list media", http.StatusInternalServerError)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		items = filterItems(items, q)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, items)
}

// DeleteMedia removes an item through the gateway.
func (h *Handlers) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.gateway.DeleteItem(r.Context(), id); err != nil {
		logging.Error("Failed to delete media item %s: %v", id, err)
		writeJSONError(w, "failed to delete media item", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "deleted")
}

// UpdateAnalysis attaches analysis results to an item through the
// gateway.
func (h *Handlers) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var result media.AnalysisResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.gateway.UpdateAnalysis(r.Context(), id, &result); err != nil {
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

// GetThumbnail generates and serves a JPEG thumbnail for a stored
// media file.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := sanitizeFileName(mux.Vars(r)["name"])
	if name == "" {
		writeJSONError(w, "invalid file name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.mediaDir, name)
	data, err := h.thumbs.Thumbnail(r.Context(), path, media.DetectType(name))
	if err != nil {
		logging.Debug("Thumbnail unavailable for %s: %v", name, err)
		writeJSONError(w, "thumbnail unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		logging.Error("Failed to write thumbnail response: %v", err)
	}
}

// GetNotifications returns recent pipeline events, oldest first.
func (h *Handlers) GetNotifications(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.notifier.Recent())
}

// filterItems keeps items whose name, labels or keywords contain the
// query, case-insensitively.
func filterItems(items []media.Item, q string) []media.Item {
	q = strings.ToLower(q)
	matched := make([]media.Item, 0, len(items))
	for _, item := range items {
		if matchesQuery(item, q) {
			matched = append(matched, item)
		}
	}
	return matched
}

func matchesQuery(item media.Item, q string) bool {
	if strings.Contains(strings.ToLower(item.Name), q) {
		return true
	}
	if item.Analysis == nil {
		return false
	}
	for _, label := range item.Analysis.Labels {
		if strings.Contains(strings.ToLower(label), q) {
			return true
		}
	}
	for _, keyword := range item.Analysis.Keywords {
		if strings.Contains(strings.ToLower(keyword), q) {
			return true
		}
	}
	return false
}

// sanitizeFileName strips any path components from an uploaded name.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

func saveUpload(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create media file: %w", err)
	}
	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write media file: %w", err)
	}
	return size, nil
}
