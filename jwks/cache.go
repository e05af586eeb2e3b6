package jwks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/relaychat/authorizer/validator"
)

// Logger is the logging surface the key cache needs. It matches the
// method set of *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// FetchOutcome describes how a fetch attempt ended.
type FetchOutcome string

const (
	FetchSucceeded FetchOutcome = "success"
	FetchStale     FetchOutcome = "stale"
	FetchFailed    FetchOutcome = "failure"
)

// FetchEvent is reported to the cache observer after each fetch attempt.
type FetchEvent struct {
	Outcome  FetchOutcome
	Keys     int
	Duration time.Duration
	Err      error
}

// Stats is a point in time view of the cache.
type Stats struct {
	Keys      int
	FetchedAt time.Time
	ExpiresAt time.Time
	Stale     bool
}

// KeyCache holds the provider's key set for a bounded time.
//
// A failed refresh never discards keys that were fetched earlier: they are
// served, past their expiry, until a fetch succeeds again. A successful
// fetch replaces the whole set.
//
// The returned maps are shared between callers and must not be modified.
type KeyCache struct {
	fetcher  Fetcher
	ttl      time.Duration
	now      func() time.Time
	logger   Logger
	observer func(FetchEvent)

	mu        sync.RWMutex
	keys      map[string]validator.KeyDescriptor
	fetchedAt time.Time
	expiresAt time.Time

	// attempts counts finished fetches; lastErr is the error of the latest one.
	attempts uint64
	lastErr  error

	// fetchMu collapses concurrent refreshes onto a single download.
	fetchMu sync.Mutex
}

// NewKeyCache builds a cache in front of fetcher.
func NewKeyCache(fetcher Fetcher, opts ...CacheOption) (*KeyCache, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	c := &KeyCache{
		fetcher:  fetcher,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   nopLogger{},
		observer: func(FetchEvent) {},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Get returns the cached key set while it is fresh and fetches otherwise.
func (c *KeyCache) Get(ctx context.Context) (map[string]validator.KeyDescriptor, error) {
	c.mu.RLock()
	if c.isFresh() {
		keys := c.keys
		c.mu.RUnlock()
		return keys, nil
	}
	seen := c.attempts
	c.mu.RUnlock()

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// A fetch that finished while we waited answers for us, failed or not,
	// so waiters never queue up behind one another's timeouts.
	c.mu.RLock()
	if c.isFresh() || c.attempts != seen {
		keys, lastErr := c.keys, c.lastErr
		c.mu.RUnlock()
		return c.settle(keys, lastErr)
	}
	c.mu.RUnlock()

	return c.fetchLocked(ctx)
}

// Fetch downloads the key set regardless of freshness.
//
// When the download fails and keys from an earlier fetch exist, those keys
// are returned without error. With nothing cached the error is a
// *validator.ValidationError with CodeKeySetUnavailable.
func (c *KeyCache) Fetch(ctx context.Context) (map[string]validator.KeyDescriptor, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	return c.fetchLocked(ctx)
}

// Invalidate marks the cached set as expired. The keys themselves are kept
// as a fallback for a failing refresh.
func (c *KeyCache) Invalidate() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache state.
func (c *KeyCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Keys:      len(c.keys),
		FetchedAt: c.fetchedAt,
		ExpiresAt: c.expiresAt,
		Stale:     !c.isFresh(),
	}
}

// settle turns the outcome of another caller's fetch into a result.
func (c *KeyCache) settle(keys map[string]validator.KeyDescriptor, lastErr error) (map[string]validator.KeyDescriptor, error) {
	if lastErr == nil || len(keys) > 0 {
		return keys, nil
	}
	return nil, validator.NewValidationError(validator.CodeKeySetUnavailable, "key set is unavailable", lastErr)
}

// isFresh must be called with mu held. An empty set is never fresh.
func (c *KeyCache) isFresh() bool {
	return len(c.keys) > 0 && c.now().Before(c.expiresAt)
}

// fetchLocked must be called with fetchMu held.
func (c *KeyCache) fetchLocked(ctx context.Context) (map[string]validator.KeyDescriptor, error) {
	start := time.Now()
	keys, err := c.fetcher.FetchKeySet(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.mu.Lock()
		c.attempts++
		c.lastErr = err
		stale := c.keys
		c.mu.Unlock()

		if len(stale) > 0 {
			c.logger.Warn("key set fetch failed, serving cached keys", "error", err, "keys", len(stale))
			c.observer(FetchEvent{Outcome: FetchStale, Keys: len(stale), Duration: elapsed, Err: err})
			return stale, nil
		}

		c.logger.Error("key set fetch failed with nothing cached", "error", err)
		c.observer(FetchEvent{Outcome: FetchFailed, Duration: elapsed, Err: err})
		return nil, validator.NewValidationError(validator.CodeKeySetUnavailable, "key set is unavailable", err)
	}

	if keys == nil {
		keys = map[string]validator.KeyDescriptor{}
	}

	now := c.now()
	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = now
	c.expiresAt = now.Add(c.ttl)
	c.attempts++
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Debug("key set fetched", "keys", len(keys), "duration", elapsed)
	c.observer(FetchEvent{Outcome: FetchSucceeded, Keys: len(keys), Duration: elapsed})

	return keys, nil
}
