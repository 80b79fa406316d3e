// Package api implements the snapstream persistence service: a JSON
// HTTP API over the SQLite database covering media records, analysis
// results and user accounts. The front-end application talks to this
// service through its persistence gateway and degrades to a local
// cache when it is unreachable.
package api
