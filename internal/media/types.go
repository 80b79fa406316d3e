package media

import (
	"path/filepath"
	"strings"
)

// Type classifies an uploaded media file.
type Type string

const (
	// TypeImage represents an image file.
	TypeImage Type = "image"
	// TypeVideo represents a video file.
	TypeVideo Type = "video"
	// TypeAudio represents an audio file.
	TypeAudio Type = "audio"
)

// Profile selects which analysis focus the provider applies.
type Profile string

const (
	// ProfileNewsArchive prioritizes entity, face and logo detection
	// plus indexing labels.
	ProfileNewsArchive Profile = "news-archive"
	// ProfileMarketingInsights prioritizes transcript, sentiment and
	// keyword/brand extraction.
	ProfileMarketingInsights Profile = "marketing-insights"
)

// Status tracks an item through the upload pipeline.
type Status string

const (
	// StatusPending means the item has been accepted but not started.
	StatusPending Status = "pending"
	// StatusProcessing means the pipeline is working on the item.
	StatusProcessing Status = "processing"
	// StatusCompleted means analysis finished and is attached.
	StatusCompleted Status = "completed"
	// StatusFailed means the pipeline hit an unrecoverable error.
	StatusFailed Status = "failed"
)

// Sentiment values the analysis provider may report.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// DetectedObject is a single object, face or person found in the media.
type DetectedObject struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the normalized output of the analysis provider.
// Only Labels, Summary, Sentiment and DetectedObjects are guaranteed
// by the provider contract; the rest depend on the profile.
type AnalysisResult struct {
	Labels               []string         `json:"labels,omitempty"`
	Sentiment            string           `json:"sentiment,omitempty"`
	Keywords             []string         `json:"keywords,omitempty"`
	Transcript           string           `json:"transcript,omitempty"`
	Summary              string           `json:"summary,omitempty"`
	ModerationConfidence float64          `json:"moderationConfidence,omitempty"`
	DetectedObjects      []DetectedObject `json:"detectedObjects,omitempty"`
	BrandMentions        []string         `json:"brandMentions,omitempty"`
}

// Item is a media record as seen by the dashboard and the admin view.
type Item struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id,omitempty"`
	Name         string          `json:"name"`
	Type         Type            `json:"type"`
	Profile      Profile         `json:"profile,omitempty"`
	Size         int64           `json:"size"`
	UploadDate   string          `json:"uploadDate"`
	Status       Status          `json:"status"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
	Analysis     *AnalysisResult `json:"analysis,omitempty"`
}

// Role distinguishes regular users from administrators.
type Role string

const (
	// RoleUser is a regular uploader.
	RoleUser Role = "user"
	// RoleAdmin may read and delete all items regardless of ownership.
	RoleAdmin Role = "admin"
)

// User is an account on the platform.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	MFAEnabled bool   `json:"mfaEnabled"`
	LastLogin  string `json:"lastLogin,omitempty"`
}

// ValidSentiment reports whether s is one of the four enumerated
// sentiment values.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

// ValidType reports whether t is a known media type.
func ValidType(t Type) bool {
	return t == TypeImage || t == TypeVideo || t == TypeAudio
}

// ValidProfile reports whether p is a known analysis profile.
func ValidProfile(p Profile) bool {
	return p == ProfileNewsArchive || p == ProfileMarketingInsights
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".heic": true, ".heif": true,
	".tiff": true, ".tif": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".mpeg": true, ".mpg": true, ".3gp": true, ".ts": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true,
	".aac": true, ".m4a": true, ".wma": true, ".opus": true,
}

// DetectType classifies a file by extension. It defaults to image for
// unknown extensions so an unrecognized upload still flows through the
// pipeline instead of being rejected.
func DetectType(name string) Type {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case videoExtensions[ext]:
		return TypeVideo
	case audioExtensions[ext]:
		return TypeAudio
	case imageExtensions[ext]:
		return TypeImage
	default:
		return TypeImage
	}
}
