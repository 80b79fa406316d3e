package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strconv"
	"time"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// jpegQuality bounds the payload size of generated stills.
	jpegQuality = 70
	// maxDimension is the bounding box for generated thumbnails.
	maxDimension = 480
)

// Extractor derives still images from uploaded media files.
type Extractor struct {
	timeout time.Duration
}

// New creates an Extractor. The timeout bounds every extraction,
// including the ffmpeg/ffprobe subprocesses it spawns.
func New(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{timeout: timeout}
}

// Extract produces a JPEG data URI for a representative frame of a
// video file. It returns the empty string for non-video input and on
// any extraction failure (corrupt file, decode error, missing ffmpeg);
// it never returns an error. The frame is taken at min(1s, duration/2)
// to skip black leader frames while still capturing early content.
func (e *Extractor) Extract(ctx context.Context, path string, mediaType media.Type) string {
	if mediaType != media.TypeVideo {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	img, err := e.videoFrame(ctx, path)
	if err != nil {
		logging.Warn("Thumbnail extraction failed for %s: %v", path, err)
		metrics.ThumbnailsGenerated.WithLabelValues("failure").Inc()
		return ""
	}

	data, err := encodeJPEG(img)
	if err != nil {
		logging.Warn("Thumbnail encode failed for %s: %v", path, err)
		metrics.ThumbnailsGenerated.WithLabelValues("failure").Inc()
		return ""
	}

	metrics.ThumbnailsGenerated.WithLabelValues("success").Inc()
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// Thumbnail returns raw JPEG thumbnail bytes for an image or video
// file. Unlike Extract it reports failures to the caller; it backs the
// thumbnail endpoint of the application server.
func (e *Extractor) Thumbnail(ctx context.Context, path string, mediaType media.Type) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var img image.Image
	var err error

	switch mediaType {
	case media.TypeImage:
		img, err = decodeImageFile(path)
	case media.TypeVideo:
		img, err = e.videoFrame(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported media type: %s", mediaType)
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}

	return encodeJPEG(img)
}

// videoFrame grabs a single frame via ffmpeg. The first attempt seeks
// to min(1s, duration/2); if that fails (very short or odd files) it
// retries without seeking.
func (e *Extractor) videoFrame(ctx context.Context, path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	seek := seekOffset(e.probeDuration(ctx, path))

	out, err := runFFmpeg(ctx,
		"-ss", formatSeconds(seek),
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	if err != nil {
		logging.Debug("ffmpeg seek grab failed for %s: %v, retrying from start", path, err)
		out, err = runFFmpeg(ctx,
			"-i", path,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"-",
		)
		if err != nil {
			return nil, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// probeDuration asks ffprobe for the container duration in seconds.
// A zero return means the duration is unknown.
func (e *Extractor) probeDuration(ctx context.Context, path string) float64 {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		logging.Debug("ffprobe failed for %s: %v", path, err)
		return 0
	}

	dur, err := strconv.ParseFloat(string(bytes.TrimSpace(stdout.Bytes())), 64)
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

// seekOffset implements the frame selection policy: min(1s, duration/2).
func seekOffset(duration float64) float64 {
	if duration <= 0 {
		// Unknown duration: assume the file is long enough for the 1s seek;
		// the no-seek retry covers the rest.
		return 1
	}
	if half := duration / 2; half < 1 {
		return half
	}
	return 1
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func runFFmpeg(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}

func decodeImageFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// imaging handles the common formats; fall back to the registered
	// stdlib decoders (gif, png, webp) for the rest.
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer file.Close()

	img, _, decodeErr := image.Decode(file)
	if decodeErr != nil {
		return nil, fmt.Errorf("all image decode methods failed: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}

	thumb := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
