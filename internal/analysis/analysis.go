package analysis

import (
	"context"
	"time"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"
)

// Request carries one media file to the analysis provider.
type Request struct {
	FileName  string
	MediaType media.Type
	Profile   media.Profile
	Data      []byte
}

// Provider produces an AnalysisResult for a media file. Implementations
// normalize their output to the fixed result schema: Labels, Summary,
// Sentiment and DetectedObjects are always populated.
type Provider interface {
	Analyze(ctx context.Context, req Request) (*media.AnalysisResult, error)
	Name() string
}

// Analyzer wraps a remote provider with the deterministic mock
// fallback. Analyze never returns an error: any remote failure, and the
// absence of a configured remote provider, degrade silently to the
// mock so the demo stays operable offline.
type Analyzer struct {
	remote Provider
	mock   Provider
}

// NewAnalyzer builds an Analyzer. remote may be nil, in which case
// every request is served by the mock without attempting any network
// call. The parameter is the concrete type so a nil *RemoteProvider
// from NewRemoteProvider never ends up as a non-nil interface value.
func NewAnalyzer(remote *RemoteProvider) *Analyzer {
	a := &Analyzer{mock: NewMockProvider()}
	if remote != nil {
		a.remote = remote
	}
	return a
}

// Analyze runs the configured provider and falls back to the mock on
// any failure. The caller cannot distinguish a mocked result by return
// type; the substitution is logged and counted only.
func (a *Analyzer) Analyze(ctx context.Context, req Request) *media.AnalysisResult {
	if req.Profile == "" {
		req.Profile = media.ProfileNewsArchive
	}

	if a.remote == nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(a.mock.Name(), string(req.Profile)).Inc()
		result, _ := a.mock.Analyze(ctx, req)
		return result
	}

	start := time.Now()
	metrics.AnalysisRequestsTotal.WithLabelValues(a.remote.Name(), string(req.Profile)).Inc()

	result, err := a.remote.Analyze(ctx, req)
	metrics.AnalysisDuration.WithLabelValues(a.remote.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Warn("Remote analysis failed for %s, falling back to local simulation: %v", req.FileName, err)
		metrics.AnalysisFallbacksTotal.Inc()
		result, _ = a.mock.Analyze(ctx, req)
		return result
	}

	return result
}
