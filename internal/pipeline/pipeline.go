package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"snapstream/internal/analysis"
	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"
	"snapstream/internal/store"
	"snapstream/internal/thumbnail"

	"github.com/google/uuid"
)

// Step identifies a stage of the upload pipeline.
type Step string

const (
	StepExtractingThumbnail Step = "extracting-thumbnail"
	StepRecordingInitial    Step = "recording-initial"
	StepPersistingInitial   Step = "persisting-initial"
	StepAnalyzing           Step = "analyzing"
	StepPersistingResult    Step = "persisting-result"
	StepCompleted           Step = "completed"
	StepFailed              Step = "failed"
)

// Files larger than this are analyzed by name and type only; the raw
// payload is not shipped to the provider.
const maxAnalysisPayload = 10 << 20

// Upload describes one file handed to the pipeline after it has been
// written to the media directory.
type Upload struct {
	FilePath  string
	FileName  string
	Size      int64
	MediaType media.Type
	Profile   media.Profile
	OwnerID   string
	URL       string
}

// Pipeline runs each upload through a fixed sequence of steps:
// thumbnail extraction, initial record creation, persistence, analysis
// and result persistence. Thumbnail and analysis failures degrade
// silently; only persistence failing on both backends marks the upload
// failed.
type Pipeline struct {
	store    store.Store
	analyzer *analysis.Analyzer
	thumbs   *thumbnail.Extractor
	notifier Notifier
	sem      chan struct{}
}

// New builds a Pipeline processing at most workers uploads at once.
func New(s store.Store, a *analysis.Analyzer, t *thumbnail.Extractor, n Notifier, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if n == nil {
		n = NopNotifier{}
	}
	return &Pipeline{
		store:    s,
		analyzer: a,
		thumbs:   t,
		notifier: n,
		sem:      make(chan struct{}, workers),
	}
}

// Process runs the upload to completion and returns the final item.
// The returned item carries StatusCompleted with its analysis attached,
// or StatusFailed together with a non-nil error when persistence was
// impossible.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*media.Item, error) {
	// A cancelled context must lose even when a worker slot is free;
	// select alone would pick between the two ready cases at random.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	metrics.PipelineInFlight.Inc()
	defer metrics.PipelineInFlight.Dec()

	logging.Info("Processing upload %s (%s, %d bytes)", up.FileName, up.MediaType, up.Size)

	// Thumbnail extraction never blocks the upload; a video frame is a
	// nicety, not a requirement.
	p.announce(StepExtractingThumbnail, "", up.FileName, "")
	start := time.Now()
	thumbURL := p.thumbs.Extract(ctx, up.FilePath, up.MediaType)
	p.observe(StepExtractingThumbnail, start)

	p.announce(StepRecordingInitial, "", up.FileName, "")
	start = time.Now()
	item := media.Item{
		ID:           uuid.NewString(),
		OwnerID:      up.OwnerID,
		Name:         up.FileName,
		Type:         up.MediaType,
		Profile:      up.Profile,
		Size:         up.Size,
		UploadDate:   time.Now().UTC().Format(time.RFC3339),
		Status:       media.StatusProcessing,
		URL:          up.URL,
		ThumbnailURL: thumbURL,
	}
	p.observe(StepRecordingInitial, start)

	p.announce(StepPersistingInitial, item.ID, up.FileName, "")
	start = time.Now()
	if err := p.store.CreateItem(ctx, item); err != nil {
		p.observe(StepPersistingInitial, start)
		return p.fail(item, fmt.Errorf("failed to persist upload record: %w", err))
	}
	p.observe(StepPersistingInitial, start)

	p.announce(StepAnalyzing, item.ID, up.FileName, string(up.Profile))
	start = time.Now()
	result := p.analyzer.Analyze(ctx, analysis.Request{
		FileName:  up.FileName,
		MediaType: up.MediaType,
		Profile:   up.Profile,
		Data:      p.payload(up),
	})
	p.observe(StepAnalyzing, start)

	p.announce(StepPersistingResult, item.ID, up.FileName, "")
	start = time.Now()
	if err := p.store.UpdateAnalysis(ctx, item.ID, result); err != nil {
		p.observe(StepPersistingResult, start)
		return p.fail(item, fmt.Errorf("failed to persist analysis result: %w", err))
	}
	p.observe(StepPersistingResult, start)

	item.Status = media.StatusCompleted
	item.Analysis = result
	p.announce(StepCompleted, item.ID, up.FileName, result.Summary)
	metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	logging.Info("Upload %s completed as item %s", up.FileName, item.ID)
	return &item, nil
}

func (p *Pipeline) fail(item media.Item, err error) (*media.Item, error) {
	item.Status = media.StatusFailed
	p.announce(StepFailed, item.ID, item.Name, err.Error())
	metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
	logging.Error("Upload %s failed: %v", item.Name, err)
	return &item, err
}

// payload reads the file for the analysis request, skipping oversized
// files. A read failure is not fatal; analysis proceeds on metadata.
func (p *Pipeline) payload(up Upload) []byte {
	if up.Size > maxAnalysisPayload {
		logging.Debug("Skipping analysis payload for %s: %d bytes exceeds cap", up.FileName, up.Size)
		return nil
	}
	data, err := os.ReadFile(up.FilePath)
	if err != nil {
		logging.Warn("Failed to read %s for analysis: %v", up.FileName, err)
		return nil
	}
	return data
}

func (p *Pipeline) announce(step Step, itemID, name, detail string) {
	p.notifier.Notify(Event{
		ItemID:   itemID,
		ItemName: name,
		Step:     step,
		Detail:   detail,
		Time:     time.Now().UTC(),
	})
}

func (p *Pipeline) observe(step Step, start time.Time) {
	metrics.PipelineStepDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())
}
