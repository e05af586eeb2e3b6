package jwks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/authorizer/validator"
)

// fakeFetcher serves a configurable result and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	keys  map[string]validator.KeyDescriptor
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeFetcher) FetchKeySet(context.Context) (map[string]validator.KeyDescriptor, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

func (f *fakeFetcher) set(keys map[string]validator.KeyDescriptor, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = keys
	f.err = err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func keysWith(kids ...string) map[string]validator.KeyDescriptor {
	keys := make(map[string]validator.KeyDescriptor, len(kids))
	for _, kid := range kids {
		keys[kid] = validator.KeyDescriptor{KeyID: kid, KeyType: "RSA"}
	}
	return keys
}

func newTestCache(t *testing.T, fetcher Fetcher, opts ...CacheOption) (*KeyCache, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache, err := NewKeyCache(fetcher, append([]CacheOption{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return cache, clock
}

func TestKeyCache_Get(t *testing.T) {
	t.Run("it serves from cache until the TTL runs out", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: keysWith("a")}
		cache, clock := newTestCache(t, fetcher, WithTTL(time.Minute))

		for i := 0; i < 3; i++ {
			keys, err := cache.Get(context.Background())
			require.NoError(t, err)
			assert.Contains(t, keys, "a")
		}
		assert.Equal(t, int32(1), fetcher.calls.Load())

		clock.Advance(59 * time.Second)
		_, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(1), fetcher.calls.Load())

		clock.Advance(time.Second)
		_, err = cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), fetcher.calls.Load())
	})

	t.Run("it treats an empty set as expired", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: map[string]validator.KeyDescriptor{}}
		cache, _ := newTestCache(t, fetcher)

		keys, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, err = cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), fetcher.calls.Load())
	})

	t.Run("it replaces the set instead of merging", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: keysWith("a", "b")}
		cache, clock := newTestCache(t, fetcher)

		_, err := cache.Get(context.Background())
		require.NoError(t, err)

		fetcher.set(keysWith("c"), nil)
		clock.Advance(DefaultTTL)

		keys, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, keysWith("c"), keys)
	})

	t.Run("it serves stale keys when the provider fails", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: keysWith("a")}
		var events []FetchEvent
		cache, clock := newTestCache(t, fetcher, WithObserver(func(e FetchEvent) { events = append(events, e) }))

		_, err := cache.Get(context.Background())
		require.NoError(t, err)

		fetcher.set(nil, errors.New("connection refused"))
		clock.Advance(2 * DefaultTTL)

		keys, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, keysWith("a"), keys)

		require.Len(t, events, 2)
		assert.Equal(t, FetchSucceeded, events[0].Outcome)
		assert.Equal(t, FetchStale, events[1].Outcome)
		assert.Equal(t, 1, events[1].Keys)
		assert.EqualError(t, events[1].Err, "connection refused")

		assert.True(t, cache.Stats().Stale)
	})

	t.Run("it reports the key set unavailable with nothing cached", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("no route to host")}
		cache, _ := newTestCache(t, fetcher)

		keys, err := cache.Get(context.Background())
		assert.Nil(t, keys)
		assert.Equal(t, validator.CodeKeySetUnavailable, validator.CodeOf(err))
		assert.ErrorContains(t, err, "no route to host")
		assert.NotErrorIs(t, err, validator.ErrTokenInvalid)
	})

	t.Run("it collapses concurrent refreshes onto one fetch", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: keysWith("a"), delay: 50 * time.Millisecond}
		cache, _ := newTestCache(t, fetcher)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keys, err := cache.Get(context.Background())
				assert.NoError(t, err)
				assert.Contains(t, keys, "a")
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), fetcher.calls.Load())
	})

	t.Run("it answers waiters with stale keys after one failed fetch", func(t *testing.T) {
		fetcher := &fakeFetcher{keys: keysWith("a")}
		cache, clock := newTestCache(t, fetcher)

		_, err := cache.Get(context.Background())
		require.NoError(t, err)

		fetcher.set(nil, errors.New("i/o timeout"))
		fetcher.delay = 200 * time.Millisecond
		clock.Advance(2 * DefaultTTL)

		start := time.Now()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keys, err := cache.Get(context.Background())
				assert.NoError(t, err)
				assert.Equal(t, keysWith("a"), keys)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(2), fetcher.calls.Load())
		assert.Less(t, time.Since(start), time.Second)

		_, err = cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(3), fetcher.calls.Load(), "the next request retries the provider")
	})

	t.Run("it answers waiters with the failure when nothing is cached", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.New("no route to host"), delay: 200 * time.Millisecond}
		cache, _ := newTestCache(t, fetcher)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keys, err := cache.Get(context.Background())
				assert.Nil(t, keys)
				assert.Equal(t, validator.CodeKeySetUnavailable, validator.CodeOf(err))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), fetcher.calls.Load())
	})
}

func TestKeyCache_FetchAndInvalidate(t *testing.T) {
	fetcher := &fakeFetcher{keys: keysWith("a")}
	cache, clock := newTestCache(t, fetcher, WithTTL(time.Minute))

	_, err := cache.Fetch(context.Background())
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Equal(t, Stats{
		Keys:      1,
		FetchedAt: clock.Now(),
		ExpiresAt: clock.Now().Add(time.Minute),
		Stale:     false,
	}, stats)

	_, err = cache.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load(), "Fetch ignores freshness")

	cache.Invalidate()
	assert.True(t, cache.Stats().Stale)
	assert.Equal(t, 1, cache.Stats().Keys, "Invalidate keeps the keys as a fallback")

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), fetcher.calls.Load())
}

func TestNewKeyCache(t *testing.T) {
	_, err := NewKeyCache(nil)
	assert.EqualError(t, err, "fetcher is required")

	_, err = NewKeyCache(&fakeFetcher{}, WithTTL(0))
	assert.ErrorContains(t, err, "cache TTL must be positive")

	_, err = NewKeyCache(&fakeFetcher{}, WithLogger(nil))
	assert.EqualError(t, err, "logger cannot be nil")
}
