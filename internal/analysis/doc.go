// Package analysis wraps the content-analysis provider used to label,
// summarize and transcribe uploaded media. A remote HTTP provider
// handles the real work; a deterministic mock stands in whenever the
// remote endpoint is unconfigured or fails, so analysis never blocks
// an upload.
package analysis
