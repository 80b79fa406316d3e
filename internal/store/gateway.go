package store

import (
	"context"
	"errors"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/metrics"
)

// Gateway routes every persistence call to the remote API first and
// falls back to the local cache when the remote side is unreachable.
// Rejections the remote side makes deliberately (bad credentials,
// duplicate accounts, missing records) are surfaced, not retried
// locally.
type Gateway struct {
	remote *RemoteStore
	local  *LocalStore
}

// NewGateway composes the remote client and local cache. remote may be
// nil, in which case every call goes straight to the cache.
func NewGateway(remote *RemoteStore, local *LocalStore) *Gateway {
	return &Gateway{remote: remote, local: local}
}

// ListItems lists from the remote API, or from the cache when the API
// is unreachable.
func (g *Gateway) ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error) {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("list", "remote").Inc()
		items, err := g.remote.ListItems(ctx, ownerID, isAdmin)
		if err == nil {
			return items, nil
		}
		g.noteFallback("list", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("list", "local").Inc()
	return g.local.ListItems(ctx, ownerID, isAdmin)
}

// CreateItem writes to the remote API, or to the cache when the API is
// unreachable.
func (g *Gateway) CreateItem(ctx context.Context, item media.Item) error {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("create", "remote").Inc()
		err := g.remote.CreateItem(ctx, item)
		if err == nil || isRejection(err) {
			return err
		}
		g.noteFallback("create", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("create", "local").Inc()
	return g.local.CreateItem(ctx, item)
}

// UpdateAnalysis updates the remote record, or the cached copy when
// the API is unreachable.
func (g *Gateway) UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("update_analysis", "remote").Inc()
		err := g.remote.UpdateAnalysis(ctx, id, result)
		if err == nil || isRejection(err) {
			return err
		}
		g.noteFallback("update_analysis", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("update_analysis", "local").Inc()
	return g.local.UpdateAnalysis(ctx, id, result)
}

// DeleteItem deletes from both backends. An item uploaded while the
// API was down exists only in the cache, so the local delete runs even
// when the remote delete succeeds.
func (g *Gateway) DeleteItem(ctx context.Context, id string) error {
	var remoteErr error
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("delete", "remote").Inc()
		remoteErr = g.remote.DeleteItem(ctx, id)
		if remoteErr != nil {
			g.noteFallback("delete", remoteErr)
		}
	}
	metrics.GatewayRequestsTotal.WithLabelValues("delete", "local").Inc()
	if err := g.local.DeleteItem(ctx, id); err != nil {
		return err
	}
	if g.remote == nil {
		return nil
	}
	if remoteErr != nil && !isRejection(remoteErr) {
		// Local removal succeeded; the remote copy (if any) is gone or
		// unreachable, which the caller treats the same way.
		logging.Debug("Remote delete for %s absorbed: %v", id, remoteErr)
	}
	return nil
}

// Authenticate verifies credentials remotely, falling back to the
// built-in admin and cached accounts when the API is unreachable. A
// remote 401 is final.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (*media.User, error) {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("login", "remote").Inc()
		user, err := g.remote.Authenticate(ctx, email, password)
		if err == nil || errors.Is(err, ErrUnauthorized) {
			return user, err
		}
		g.noteFallback("login", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("login", "local").Inc()
	return g.local.Authenticate(ctx, email, password)
}

// Register creates the account remotely, falling back to the cached
// registry when the API is unreachable. A remote duplicate rejection
// is final.
func (g *Gateway) Register(ctx context.Context, name, email, password string, role media.Role) (*media.User, error) {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("register", "remote").Inc()
		user, err := g.remote.Register(ctx, name, email, password, role)
		if err == nil || errors.Is(err, ErrConflict) {
			return user, err
		}
		g.noteFallback("register", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("register", "local").Inc()
	return g.local.Register(ctx, name, email, password, role)
}

// ListUsers lists accounts from the remote API, or the cached
// registry when the API is unreachable.
func (g *Gateway) ListUsers(ctx context.Context) ([]media.User, error) {
	if g.remote != nil {
		metrics.GatewayRequestsTotal.WithLabelValues("list_users", "remote").Inc()
		users, err := g.remote.ListUsers(ctx)
		if err == nil {
			return users, nil
		}
		g.noteFallback("list_users", err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues("list_users", "local").Inc()
	return g.local.ListUsers(ctx)
}

func (g *Gateway) noteFallback(operation string, err error) {
	metrics.GatewayFallbacksTotal.WithLabelValues(operation).Inc()
	logging.Warn("Persistence API unavailable for %s, using local cache: %v", operation, err)
}

// isRejection reports whether the remote API answered with a
// deliberate refusal rather than failing to answer. Refusals are
// surfaced to the caller; only transport failures trigger fallback.
func isRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthorized)
}
