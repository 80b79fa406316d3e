package store

import (
	"context"
	"errors"

	"snapstream/internal/media"
)

// Standard errors returned by the persistence layer.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record already exists.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when credentials are rejected.
	// Unlike transport failures it is never recovered by fallback.
	ErrUnauthorized = errors.New("unauthorized")
)

// Store is the persistence port for media records. It is implemented
// by the remote HTTP API client and by the local cache, and composed
// by the Gateway.
type Store interface {
	// ListItems returns all items visible to ownerID. Admins see every
	// item regardless of ownership.
	ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error)
	// CreateItem persists a new media record.
	CreateItem(ctx context.Context, item media.Item) error
	// UpdateAnalysis attaches an analysis result to the item and marks
	// it completed.
	UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error
	// DeleteItem removes the record from whichever backend holds it.
	DeleteItem(ctx context.Context, id string) error
}

// UserStore is the persistence port for accounts, used by the login
// and registration flows.
type UserStore interface {
	// Authenticate verifies credentials and returns the account.
	// Rejected credentials yield ErrUnauthorized.
	Authenticate(ctx context.Context, email, password string) (*media.User, error)
	// Register creates an account. A duplicate email yields ErrConflict.
	Register(ctx context.Context, name, email, password string, role media.Role) (*media.User, error)
}
