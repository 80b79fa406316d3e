package analysis

import (
	"context"
	"fmt"

	"snapstream/internal/media"
)

// Fixed confidence values reported by the mock so tests stay
// deterministic.
const (
	mockPrimaryConfidence   = 0.98
	mockSecondaryConfidence = 0.85
)

// MockProvider returns a deterministic result derived only from the
// file name, media type and profile. It never fails and always
// satisfies the minimum-required-fields contract.
type MockProvider struct{}

// NewMockProvider creates the deterministic fallback provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name identifies the provider in logs and metrics.
func (m *MockProvider) Name() string { return "mock" }

// Analyze produces the fallback result. The error return is always nil
// and exists only to satisfy the Provider interface.
func (m *MockProvider) Analyze(_ context.Context, req Request) (*media.AnalysisResult, error) {
	lead := "Campaign"
	if req.Profile == media.ProfileNewsArchive {
		lead = "Broadcast"
	}

	return &media.AnalysisResult{
		Labels:    []string{lead, "Digital Archive", "Intelligence"},
		Sentiment: media.SentimentNeutral,
		Keywords:  []string{"Analysis", "Metadata", "Crimson"},
		Summary: fmt.Sprintf(
			"Simulation successful for %s. This item was processed using the SnapStream fallback cluster due to environment constraints.",
			req.FileName),
		DetectedObjects: []media.DetectedObject{
			{Name: "Primary Subject", Confidence: mockPrimaryConfidence},
			{Name: "Secondary Context", Confidence: mockSecondaryConfidence},
		},
	}, nil
}
