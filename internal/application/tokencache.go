// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/paygate/internal/domain/model"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
)

// DefaultRefreshTimeout bounds a single token exchange when no timeout is configured.
const DefaultRefreshTimeout = 30 * time.Second

const refreshKey = "access-token"

// TokenSource hands out a currently valid bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Compile-time interface satisfaction check.
var _ TokenSource = (*TokenCache)(nil)

// TokenCache holds the process-wide bearer token and refreshes it on demand.
// Concurrent callers that find the cache stale share one in-flight refresh.
// The refresh path is the only writer of the cached token.
type TokenCache struct {
	fetcher driven.TokenFetcher
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.RWMutex
	cached model.AccessToken

	group singleflight.Group
}

// NewTokenCache creates an empty TokenCache. timeout bounds each refresh; a
// non-positive value selects DefaultRefreshTimeout.
func NewTokenCache(fetcher driven.TokenFetcher, timeout time.Duration, logger *slog.Logger) *TokenCache {
	return NewTokenCacheWithClock(fetcher, timeout, logger, time.Now)
}

// NewTokenCacheWithClock creates a TokenCache that reads the current time from
// now. Intended for tests that need to move time forward.
func NewTokenCacheWithClock(fetcher driven.TokenFetcher, timeout time.Duration, logger *slog.Logger, now func() time.Time) *TokenCache {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenCache{
		fetcher: fetcher,
		timeout: timeout,
		now:     now,
		logger:  logger,
	}
}

// Token returns the cached token while it is fresh. Otherwise it waits for a
// refresh, starting one if none is in flight. A failed refresh leaves the
// cache untouched and returns an error matching model.ErrAuthentication.
//
// The refresh is not bound to ctx: if ctx ends first, Token returns ctx.Err()
// and the refresh continues for the benefit of later callers.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if cur := c.Snapshot(); cur.IsFresh(c.now()) {
		return cur.Value, nil
	}

	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// refresh runs inside the singleflight group. It re-checks freshness because a
// refresh that finished between the caller's check and joining the group has
// already replaced the token.
func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	if cur := c.Snapshot(); cur.IsFresh(c.now()) {
		return cur.Value, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	tok, err := c.fetcher.FetchToken(ctx)
	if err != nil {
		c.logger.Error("token refresh failed", "error", err, "duration", time.Since(start).Round(time.Millisecond))
		if !errors.Is(err, model.ErrAuthentication) {
			err = fmt.Errorf("%w: %w", model.ErrAuthentication, err)
		}
		return "", err
	}

	c.mu.Lock()
	c.cached = tok
	c.mu.Unlock()

	if tok.ExpiresAt.IsZero() {
		c.logger.Warn("token has no usable expiry, it will be refetched on every call")
	} else {
		c.logger.Info("token refreshed", "expires_at", tok.ExpiresAt.UTC().Format(time.RFC3339))
	}

	return tok.Value, nil
}

// Snapshot returns a copy of the cached token.
func (c *TokenCache) Snapshot() model.AccessToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cached
}

// State reports whether the next Token call would be served from cache.
func (c *TokenCache) State() model.TokenState {
	return c.Snapshot().State(c.now())
}
