// Package metrics defines the Prometheus metrics exposed by the
// SnapStream service: HTTP request metrics, database query metrics,
// upload pipeline progress, persistence gateway fallbacks, and
// analysis provider activity.
package metrics
