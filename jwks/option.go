package jwks

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTTL is how long a fetched key set is served before refetching.
	DefaultTTL = time.Hour

	// DefaultFetchTimeout bounds a single key set download.
	DefaultFetchTimeout = 5 * time.Second
)

// ============================================================================
// HTTPFetcher Options
// ============================================================================

// FetcherOption is how options for the HTTPFetcher are set up.
type FetcherOption func(*HTTPFetcher) error

// WithIssuerURL sets the identity provider's issuer URL.
// This is a required option.
func WithIssuerURL(issuerURL *url.URL) FetcherOption {
	return func(f *HTTPFetcher) error {
		if issuerURL == nil {
			return errors.New("issuer URL cannot be nil")
		}
		f.issuerURL = issuerURL
		return nil
	}
}

// WithCustomJWKSURI makes the fetcher download the key set from jwksURI
// instead of the issuer's well-known location.
func WithCustomJWKSURI(jwksURI *url.URL) FetcherOption {
	return func(f *HTTPFetcher) error {
		if jwksURI == nil {
			return errors.New("custom JWKS URI cannot be nil")
		}
		f.customJWKSURI = jwksURI
		return nil
	}
}

// WithDiscovery makes the fetcher read the key set location from the
// issuer's .well-known/openid-configuration document. It has no effect
// when a custom JWKS URI is set.
func WithDiscovery() FetcherOption {
	return func(f *HTTPFetcher) error {
		f.discovery = true
		return nil
	}
}

// WithCustomClient sets the HTTP client used for downloads.
func WithCustomClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		f.client = c
		return nil
	}
}

// WithFetchTimeout bounds each download. If not specified, defaults to 5 seconds.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *HTTPFetcher) error {
		if timeout <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %s", timeout)
		}
		f.timeout = timeout
		return nil
	}
}

// ============================================================================
// KeyCache Options
// ============================================================================

// CacheOption is how options for the KeyCache are set up.
type CacheOption func(*KeyCache) error

// WithTTL sets how long a fetched key set stays fresh.
// If not specified, defaults to 1 hour.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *KeyCache) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(logger Logger) CacheOption {
	return func(c *KeyCache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithObserver registers a function called after every fetch attempt.
// It is called synchronously and must not block.
func WithObserver(observer func(FetchEvent)) CacheOption {
	return func(c *KeyCache) error {
		if observer == nil {
			return errors.New("observer cannot be nil")
		}
		c.observer = observer
		return nil
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *KeyCache) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// ============================================================================
// Resolver Options
// ============================================================================

// ResolverOption is how options for the Resolver are set up.
type ResolverOption func(*Resolver) error

// WithResolverLogger sets the logger used to report forced refreshes.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}
