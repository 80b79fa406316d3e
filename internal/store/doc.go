// Package store provides dual-backend persistence for media records
// and accounts: a client for the remote persistence API, a local
// JSON-file cache modelled on browser localStorage, and a gateway
// that prefers the remote side and degrades to the cache when the API
// is unreachable.
package store
