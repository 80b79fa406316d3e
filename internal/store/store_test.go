package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"snapstream/internal/media"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	dir := t.TempDir()
	return NewLocalStore(
		filepath.Join(dir, "snapstream_mock_media.json"),
		filepath.Join(dir, "snapstream_mock_users.json"),
	)
}

func testItem(id, owner string) media.Item {
	return media.Item{
		ID:         id,
		OwnerID:    owner,
		Name:       id + ".mp4",
		Type:       media.TypeVideo,
		Profile:    media.ProfileNewsArchive,
		Size:       1024,
		UploadDate: time.Now().UTC().Format(time.RFC3339),
		Status:     media.StatusProcessing,
	}
}

func TestLocalStoreCreateAndList(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	ctx := context.Background()

	if err := local.CreateItem(ctx, testItem("a", "user-1")); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if err := local.CreateItem(ctx, testItem("b", "user-1")); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	items, err := local.ListItems(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListItems() returned %d items, want 2", len(items))
	}
	if items[0].ID != "b" {
		t.Errorf("newest item first: got %q, want b", items[0].ID)
	}

	if err := local.CreateItem(ctx, testItem("a", "user-1")); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreateItem() error = %v, want ErrConflict", err)
	}
}

func TestLocalStoreOwnerFiltering(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	ctx := context.Background()

	local.CreateItem(ctx, testItem("mine", "user-1"))
	local.CreateItem(ctx, testItem("theirs", "user-2"))

	items, _ := local.ListItems(ctx, "user-1", false)
	if len(items) != 1 || items[0].ID != "mine" {
		t.Errorf("owner list = %v, want only own items", items)
	}

	all, _ := local.ListItems(ctx, "user-1", true)
	if len(all) != 2 {
		t.Errorf("admin list returned %d items, want 2", len(all))
	}
}

func TestLocalStoreUpdateAnalysis(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	ctx := context.Background()
	local.CreateItem(ctx, testItem("a", "user-1"))

	result := &media.AnalysisResult{
		Labels:    []string{"Broadcast"},
		Sentiment: media.SentimentNeutral,
		Summary:   "ok",
	}
	if err := local.UpdateAnalysis(ctx, "a", result); err != nil {
		t.Fatalf("UpdateAnalysis() error = %v", err)
	}

	items, _ := local.ListItems(ctx, "user-1", false)
	if items[0].Status != media.StatusCompleted {
		t.Errorf("Status = %q, want completed", items[0].Status)
	}
	if items[0].Analysis == nil || items[0].Analysis.Summary != "ok" {
		t.Error("analysis result not persisted")
	}

	if err := local.UpdateAnalysis(ctx, "missing", result); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAnalysis(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreDelete(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	ctx := context.Background()
	local.CreateItem(ctx, testItem("a", "user-1"))

	if err := local.DeleteItem(ctx, "a"); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	items, _ := local.ListItems(ctx, "user-1", false)
	if len(items) != 0 {
		t.Errorf("item still listed after delete: %v", items)
	}

	// Deleting an id not in the cache is fine; it may only exist remotely.
	if err := local.DeleteItem(ctx, "a"); err != nil {
		t.Errorf("repeat DeleteItem() error = %v", err)
	}
}

func TestLocalStoreDefaultAdmin(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	user, err := local.Authenticate(context.Background(), DefaultAdminEmail, DefaultAdminPassword)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.Role != media.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}

	if _, err := local.Authenticate(context.Background(), DefaultAdminEmail, "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("bad password error = %v, want ErrUnauthorized", err)
	}
}

func TestLocalStoreRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	local := newLocal(t)
	ctx := context.Background()

	user, err := local.Register(ctx, "Pat", "pat@example.com", "hunter2", media.RoleUser)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" || user.Role != media.RoleUser {
		t.Errorf("registered user = %+v", user)
	}

	if _, err := local.Register(ctx, "Pat", "PAT@example.com", "other", media.RoleUser); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Register() error = %v, want ErrConflict", err)
	}

	got, err := local.Authenticate(ctx, "Pat@Example.com", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated id = %q, want %q", got.ID, user.ID)
	}

	if _, err := local.Authenticate(ctx, "pat@example.com", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
}

func TestGatewayPrefersRemote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/media" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]media.Item{{ID: "remote-1", OwnerID: "user-1"}})
	}))
	defer srv.Close()

	g := NewGateway(NewRemoteStore(srv.URL+"/api", 2*time.Second), newLocal(t))
	items, err := g.ListItems(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "remote-1" {
		t.Errorf("items = %v, want remote record", items)
	}
}

func TestGatewayFallsBackWhenUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable from the start

	local := newLocal(t)
	g := NewGateway(NewRemoteStore(srv.URL+"/api", time.Second), local)
	ctx := context.Background()

	if err := g.CreateItem(ctx, testItem("cached", "user-1")); err != nil {
		t.Fatalf("CreateItem() error = %v, want silent fallback", err)
	}

	items, err := g.ListItems(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "cached" {
		t.Errorf("items = %v, want cached record", items)
	}

	if err := g.DeleteItem(ctx, "cached"); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	items, _ = g.ListItems(ctx, "user-1", false)
	if len(items) != 0 {
		t.Errorf("deleted item still listed: %v", items)
	}
}

func TestGatewaySurfacesCredentialRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	// The remote rejection must not be retried against the local cache,
	// where the default admin would otherwise answer.
	g := NewGateway(NewRemoteStore(srv.URL+"/api", 2*time.Second), newLocal(t))
	_, err := g.Authenticate(context.Background(), DefaultAdminEmail, DefaultAdminPassword)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate() error = %v, want ErrUnauthorized surfaced", err)
	}
}

func TestGatewayLoginFallsBackToDefaultAdmin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := NewGateway(NewRemoteStore(srv.URL+"/api", time.Second), newLocal(t))
	user, err := g.Authenticate(context.Background(), DefaultAdminEmail, DefaultAdminPassword)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.Role != media.RoleAdmin {
		t.Errorf("Role = %q, want admin fallback", user.Role)
	}
}

func TestRemoteStoreUpdateAnalysisNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	remote := NewRemoteStore(srv.URL+"/api", 2*time.Second)
	err := remote.UpdateAnalysis(context.Background(), "missing", &media.AnalysisResult{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAnalysis() error = %v, want ErrNotFound", err)
	}
}
