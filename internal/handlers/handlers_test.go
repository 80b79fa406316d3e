package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapstream/internal/analysis"
	"snapstream/internal/media"
	"snapstream/internal/pipeline"
	"snapstream/internal/startup"
	"snapstream/internal/store"
	"snapstream/internal/thumbnail"
)

// newTestHandlers wires the full offline stack: no persistence API, so
// the gateway serves everything from the local cache.
func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()

	dir := t.TempDir()
	cfg := &startup.Config{
		MediaDir:      filepath.Join(dir, "media"),
		CacheFile:     filepath.Join(dir, "cache", "media.json"),
		UserCacheFile: filepath.Join(dir, "cache", "users.json"),
	}
	for _, d := range []string{cfg.MediaDir, filepath.Dir(cfg.CacheFile)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	local := store.NewLocalStore(cfg.CacheFile, cfg.UserCacheFile)
	gateway := store.NewGateway(nil, local)
	thumbs := thumbnail.New(2 * time.Second)
	notifier := pipeline.NewMemoryNotifier(64)
	pipe := pipeline.New(gateway, analysis.NewAnalyzer(nil), thumbs, notifier, 2)

	return New(gateway, pipe, notifier, thumbs, cfg)
}

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newTestHandlers(t).Router())
	t.Cleanup(srv.Close)
	return srv
}

func uploadFile(t *testing.T, url, name, owner, profile string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "not real media bytes")
	mw.WriteField("owner_id", owner)
	if profile != "" {
		mw.WriteField("profile", profile)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload error = %v", err)
	}
	return resp
}

func TestUploadCompletesOffline(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := uploadFile(t, srv.URL, "press-photo.jpg", "user-1", "marketing-insights")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", resp.StatusCode)
	}

	var item media.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if item.Status != media.StatusCompleted {
		t.Errorf("Status = %q, want completed", item.Status)
	}
	if item.Analysis == nil || len(item.Analysis.Labels) == 0 {
		t.Error("completed upload missing analysis")
	}
	if item.Analysis.Labels[0] != "Campaign" {
		t.Errorf("lead label = %q, want marketing profile result", item.Analysis.Labels[0])
	}
}

func TestUploadThenListAndDelete(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	for _, name := range []string{"first.jpg", "second.jpg"} {
		resp := uploadFile(t, srv.URL, name, "user-1", "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("upload %s status = %d", name, resp.StatusCode)
		}
	}

	var items []media.Item
	getJSON(t, srv.URL+"/api/media?owner_id=user-1", &items)
	if len(items) != 2 {
		t.Fatalf("listed %d items, want 2", len(items))
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/media/"+items[0].ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}

	getJSON(t, srv.URL+"/api/media?owner_id=user-1", &items)
	if len(items) != 1 {
		t.Errorf("listed %d items after delete, want 1", len(items))
	}
}

func TestListMediaSearchFilter(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := uploadFile(t, srv.URL, "quarterly-report.jpg", "user-1", "")
	resp.Body.Close()
	resp = uploadFile(t, srv.URL, "holiday-snap.jpg", "user-1", "")
	resp.Body.Close()

	var items []media.Item
	getJSON(t, srv.URL+"/api/media?owner_id=user-1&q=quarterly", &items)
	if len(items) != 1 || items[0].Name != "quarterly-report.jpg" {
		t.Errorf("filtered list = %v, want only the matching item", items)
	}

	// The mock analysis keywords are searchable too.
	getJSON(t, srv.URL+"/api/media?owner_id=user-1&q=crimson", &items)
	if len(items) != 2 {
		t.Errorf("keyword search matched %d items, want 2", len(items))
	}
}

func TestUploadValidation(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)

	resp := uploadFile(t, srv.URL, "x.jpg", "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing owner status = %d, want 400", resp.StatusCode)
	}

	resp = uploadFile(t, srv.URL, "x.jpg", "user-1", "astrology")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad profile status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadCancelledRequestGetsErrorBody(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "abandoned.jpg")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "not real media bytes")
	mw.WriteField("owner_id", "user-1")
	mw.Close()

	// A client that disconnects before the pipeline starts leaves no
	// item; the response must still be a JSON error object, not null.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf).WithContext(ctx)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response %q is not a JSON object: %v", rec.Body.String(), err)
	}
	if body["error"] == "" {
		t.Errorf("response %q missing error message", rec.Body.String())
	}
}

func TestLoginFallsBackToDefaultAdmin(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := postJSON(t, srv.URL+"/api/login", map[string]string{
		"email":    store.DefaultAdminEmail,
		"password": store.DefaultAdminPassword,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var user media.User
	json.NewDecoder(resp.Body).Decode(&user)
	if user.Role != media.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := postJSON(t, srv.URL+"/api/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "nope",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("login status = %d, want 401", resp.StatusCode)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := postJSON(t, srv.URL+"/api/register", map[string]string{
		"name":     "Morgan",
		"email":    "morgan@example.com",
		"password": "hunter2",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/login", map[string]string{
		"email":    "morgan@example.com",
		"password": "hunter2",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d, want 200", resp.StatusCode)
	}

	var users []media.User
	getJSON(t, srv.URL+"/api/users", &users)
	if len(users) != 2 {
		t.Errorf("users list has %d entries, want default admin plus one", len(users))
	}
}

func TestNotificationsRecordPipelineSteps(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := uploadFile(t, srv.URL, "tracked.jpg", "user-1", "")
	resp.Body.Close()

	var events []pipeline.Event
	getJSON(t, srv.URL+"/api/notifications", &events)
	if len(events) == 0 {
		t.Fatal("no notifications recorded")
	}
	last := events[len(events)-1]
	if last.Step != pipeline.StepCompleted {
		t.Errorf("last event step = %q, want completed", last.Step)
	}
}

func TestMediaFileServing(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)
	resp := uploadFile(t, srv.URL, "served.jpg", "user-1", "")

	var item media.Item
	json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()

	fileResp, err := http.Get(srv.URL + item.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer fileResp.Body.Close()
	if fileResp.StatusCode != http.StatusOK {
		t.Fatalf("file fetch status = %d, want 200", fileResp.StatusCode)
	}
	body, _ := io.ReadAll(fileResp.Body)
	if string(body) != "not real media bytes" {
		t.Error("served file does not match uploaded content")
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestApp(t)

	var health HealthResponse
	getJSON(t, srv.URL+"/health", &health)
	if health.Status != "healthy" {
		t.Errorf("health status = %q", health.Status)
	}

	resp, err := http.Get(srv.URL + "/livez")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("livez status = %d", resp.StatusCode)
	}
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}
