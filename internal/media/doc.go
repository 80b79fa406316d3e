// Package media defines the core domain types shared across the
// SnapStream service: media items, analysis results, users, and the
// enumerations (type, profile, status, sentiment, role) that govern
// them.
package media
