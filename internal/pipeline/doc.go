// Package pipeline drives uploaded files through thumbnail extraction,
// record creation, analysis and result persistence. Each upload moves
// through a fixed step sequence; observers receive a notification per
// transition, and a bounded worker pool limits concurrent processing.
package pipeline
