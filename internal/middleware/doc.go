// Package middleware provides HTTP middleware shared by both servers:
// W3C Extended Log Format request logging with injection-safe field
// sanitization, and Prometheus request metrics with bounded path
// cardinality.
package middleware
