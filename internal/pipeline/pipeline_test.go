package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapstream/internal/analysis"
	"snapstream/internal/media"
	"snapstream/internal/store"
	"snapstream/internal/thumbnail"
)

func newTestPipeline(t *testing.T, s store.Store, n Notifier) *Pipeline {
	t.Helper()
	return New(s, analysis.NewAnalyzer(nil), thumbnail.New(2*time.Second), n, 2)
}

func newLocalStore(t *testing.T) *store.LocalStore {
	t.Helper()
	dir := t.TempDir()
	return store.NewLocalStore(
		filepath.Join(dir, "media.json"),
		filepath.Join(dir, "users.json"),
	)
}

func writeUpload(t *testing.T, name string) Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not real media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return Upload{
		FilePath:  path,
		FileName:  name,
		Size:      14,
		MediaType: media.DetectType(name),
		Profile:   media.ProfileNewsArchive,
		OwnerID:   "user-1",
		URL:       "/media/" + name,
	}
}

func TestProcessCompletesWithAnalysis(t *testing.T) {
	t.Parallel()

	local := newLocalStore(t)
	p := newTestPipeline(t, local, nil)

	item, err := p.Process(context.Background(), writeUpload(t, "photo.jpg"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if item.Status != media.StatusCompleted {
		t.Errorf("Status = %q, want completed", item.Status)
	}
	if item.Analysis == nil {
		t.Fatal("completed item has no analysis result")
	}
	if len(item.Analysis.Labels) == 0 || item.Analysis.Summary == "" {
		t.Error("analysis result missing required fields")
	}

	// The persisted copy must match the returned status.
	stored, err := local.ListItems(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d items, want 1", len(stored))
	}
	if stored[0].Status != media.StatusCompleted || stored[0].Analysis == nil {
		t.Errorf("stored item = %+v, want completed with analysis", stored[0])
	}
}

func TestProcessBackToBackUploads(t *testing.T) {
	t.Parallel()

	local := newLocalStore(t)
	p := newTestPipeline(t, local, nil)
	ctx := context.Background()

	first, err := p.Process(ctx, writeUpload(t, "one.jpg"))
	if err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	second, err := p.Process(ctx, writeUpload(t, "two.jpg"))
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("uploads share an id")
	}

	stored, _ := local.ListItems(ctx, "user-1", false)
	if len(stored) != 2 {
		t.Errorf("stored %d items, want both uploads", len(stored))
	}
}

func TestProcessNonVideoHasNoThumbnail(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, newLocalStore(t), nil)
	item, err := p.Process(context.Background(), writeUpload(t, "track.mp3"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if item.ThumbnailURL != "" {
		t.Errorf("ThumbnailURL = %q, want empty for audio", item.ThumbnailURL)
	}
}

type failingStore struct {
	createErr error
	updateErr error
}

func (f *failingStore) ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error) {
	return nil, nil
}
func (f *failingStore) CreateItem(ctx context.Context, item media.Item) error { return f.createErr }
func (f *failingStore) UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error {
	return f.updateErr
}
func (f *failingStore) DeleteItem(ctx context.Context, id string) error { return nil }

func TestProcessMarksFailedWhenPersistenceDies(t *testing.T) {
	t.Parallel()

	boom := errors.New("both backends down")
	notifier := NewMemoryNotifier(16)
	p := newTestPipeline(t, &failingStore{createErr: boom}, notifier)

	item, err := p.Process(context.Background(), writeUpload(t, "doomed.jpg"))
	if !errors.Is(err, boom) {
		t.Fatalf("Process() error = %v, want wrapped cause", err)
	}
	if item.Status != media.StatusFailed {
		t.Errorf("Status = %q, want failed", item.Status)
	}

	events := notifier.Recent()
	last := events[len(events)-1]
	if last.Step != StepFailed {
		t.Errorf("last event step = %q, want failed", last.Step)
	}
}

func TestProcessNotifiesEachStep(t *testing.T) {
	t.Parallel()

	notifier := NewMemoryNotifier(16)
	p := newTestPipeline(t, newLocalStore(t), notifier)

	if _, err := p.Process(context.Background(), writeUpload(t, "clip.jpg")); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []Step{
		StepExtractingThumbnail,
		StepRecordingInitial,
		StepPersistingInitial,
		StepAnalyzing,
		StepPersistingResult,
		StepCompleted,
	}
	events := notifier.Recent()
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, step := range want {
		if events[i].Step != step {
			t.Errorf("event %d step = %q, want %q", i, events[i].Step, step)
		}
	}
}

func TestProcessHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	p := New(newLocalStore(t), analysis.NewAnalyzer(nil), thumbnail.New(time.Second), nil, 1)

	// Occupy the single worker slot so the next call blocks on admission.
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Process(ctx, writeUpload(t, "queued.jpg"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Process() error = %v, want context deadline", err)
	}
}

func TestMemoryNotifierRing(t *testing.T) {
	t.Parallel()

	n := NewMemoryNotifier(3)
	for i, name := range []string{"a", "b", "c", "d"} {
		n.Notify(Event{ItemName: name, Time: time.Unix(int64(i), 0)})
	}

	events := n.Recent()
	if len(events) != 3 {
		t.Fatalf("got %d events, want capacity 3", len(events))
	}
	if events[0].ItemName != "b" || events[2].ItemName != "d" {
		t.Errorf("ring order = %v, want oldest b through newest d", events)
	}
}
