package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"snapstream/internal/media"
)

const newsArchivePrompt = `SCENARIO: NEWS AGENCY ARCHIVE

STEP 3 (Smart Eyes): Identify people's faces, recognize logos, and read words (OCR).
STEP 4 (Automatic Labels): Generate high-level indexing tags. Include specific categories if relevant: "Election", "Reporter Interview", "Famous Person", "Public Event".

FOCUS:
1. Visual Evidence: Identify public figures and logos.
2. Event Tagging: Provide descriptive labels for rapid search indexing.`

const marketingInsightsPrompt = `SCENARIO: MARKETING INSIGHTS & PODCAST ANALYSIS

FOCUS:
1. Audience Engagement: Identify emotional tone and recurring thematic trends.
2. Speech-to-Text: Provide a detailed transcript for keyword extraction.
3. Brand Analytics: Detect company mentions and sentiment towards products.`

// RemoteProvider calls an external content-analysis endpoint. The
// endpoint receives the file bytes, declared media type and a
// profile-specific prompt, and must respond with JSON conforming to
// the AnalysisResult schema.
type RemoteProvider struct {
	url    string
	apiKey string
	hc     *http.Client
}

// inferenceRequest is the wire format sent to the analysis endpoint.
type inferenceRequest struct {
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Profile   string `json:"profile"`
	Prompt    string `json:"prompt"`
	Data      string `json:"data"` // base64 file bytes
}

// NewRemoteProvider creates a provider for the given endpoint. It
// returns nil when url or apiKey is empty; a nil provider tells the
// Analyzer to use the mock without attempting a network call.
func NewRemoteProvider(url, apiKey string, timeout time.Duration) *RemoteProvider {
	if url == "" || apiKey == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}

	return &RemoteProvider{
		url:    url,
		apiKey: apiKey,
		hc:     &http.Client{Transport: transport, Timeout: timeout},
	}
}

// Name identifies the provider in logs and metrics.
func (p *RemoteProvider) Name() string { return "remote" }

// Analyze posts the file to the analysis endpoint and decodes the
// result. Any transport error, non-200 status, malformed response, or
// response violating the required-fields contract is returned as an
// error for the Analyzer to absorb.
func (p *RemoteProvider) Analyze(ctx context.Context, req Request) (*media.AnalysisResult, error) {
	prompt := newsArchivePrompt
	if req.Profile == media.ProfileMarketingInsights {
		prompt = marketingInsightsPrompt
	}

	body, err := json.Marshal(inferenceRequest{
		FileName:  req.FileName,
		MediaType: string(req.MediaType),
		Profile:   string(req.Profile),
		Prompt:    fmt.Sprintf("Analyze this %s file named %q for SnapStream. %s", req.MediaType, req.FileName, prompt),
		Data:      base64.StdEncoding.EncodeToString(req.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis endpoint returned %s", resp.Status)
	}

	var result media.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("malformed analysis response: %w", err)
	}

	if err := validateResult(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// validateResult enforces the producer contract: labels, summary,
// sentiment and detectedObjects present, confidences within [0,1].
func validateResult(r *media.AnalysisResult) error {
	if len(r.Labels) == 0 {
		return fmt.Errorf("analysis response missing labels")
	}
	if r.Summary == "" {
		return fmt.Errorf("analysis response missing summary")
	}
	if !media.ValidSentiment(r.Sentiment) {
		return fmt.Errorf("analysis response has invalid sentiment %q", r.Sentiment)
	}
	if len(r.DetectedObjects) == 0 {
		return fmt.Errorf("analysis response missing detected objects")
	}
	for _, obj := range r.DetectedObjects {
		if obj.Confidence < 0 || obj.Confidence > 1 {
			return fmt.Errorf("detected object %q has confidence %v outside [0,1]", obj.Name, obj.Confidence)
		}
	}
	if r.ModerationConfidence < 0 || r.ModerationConfidence > 1 {
		return fmt.Errorf("moderation confidence %v outside [0,1]", r.ModerationConfidence)
	}
	return nil
}
