package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/relaychat/authorizer/internal/oidc"
	"github.com/relaychat/authorizer/validator"
)

// maxKeySetSize bounds the key set document. Real documents are a few KB.
const maxKeySetSize = 1024 * 1024

// Fetcher retrieves the provider's current key set, keyed by kid.
type Fetcher interface {
	FetchKeySet(ctx context.Context) (map[string]validator.KeyDescriptor, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (map[string]validator.KeyDescriptor, error)

// FetchKeySet calls f(ctx).
func (f FetcherFunc) FetchKeySet(ctx context.Context) (map[string]validator.KeyDescriptor, error) {
	return f(ctx)
}

// HTTPFetcher downloads the key set published by the identity provider.
// By default the document is read from <issuer>/.well-known/jwks.json.
type HTTPFetcher struct {
	issuerURL     *url.URL // Required.
	customJWKSURI *url.URL
	discovery     bool
	client        *http.Client
	timeout       time.Duration

	jwksURIMu sync.Mutex
	jwksURI   string
}

// NewHTTPFetcher builds and returns a new *HTTPFetcher.
//
// Required options:
//   - WithIssuerURL
//
// Optional options:
//   - WithCustomJWKSURI: fetch from this location instead
//   - WithDiscovery: resolve the location through OpenID Connect discovery
//   - WithCustomClient
//   - WithFetchTimeout (default 5s)
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		client:  &http.Client{},
		timeout: DefaultFetchTimeout,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if f.issuerURL == nil {
		return nil, fmt.Errorf("issuer URL is required (use WithIssuerURL)")
	}

	if f.customJWKSURI != nil {
		f.jwksURI = f.customJWKSURI.String()
	} else if !f.discovery {
		f.jwksURI = oidc.JWKSURL(*f.issuerURL).String()
	}

	return f, nil
}

// FetchKeySet downloads and parses the key set. The whole exchange,
// discovery included, is bounded by the configured timeout.
func (f *HTTPFetcher) FetchKeySet(ctx context.Context) (map[string]validator.KeyDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	jwksURI, err := f.getJWKSURI(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)
	}

	return ParseKeySet(io.LimitReader(resp.Body, maxKeySetSize))
}

// getJWKSURI returns the key set location, discovering it if necessary.
// A failed discovery is retried on the next fetch.
func (f *HTTPFetcher) getJWKSURI(ctx context.Context) (string, error) {
	f.jwksURIMu.Lock()
	defer f.jwksURIMu.Unlock()

	if f.jwksURI != "" {
		return f.jwksURI, nil
	}

	wkEndpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, f.client, *f.issuerURL, f.issuerURL.String())
	if err != nil {
		return "", fmt.Errorf("failed to discover JWKS URI: %w", err)
	}

	f.jwksURI = wkEndpoints.JWKSURI
	return f.jwksURI, nil
}

type keySetDocument struct {
	Keys []json.RawMessage `json:"keys"`
}

// ParseKeySet reads a key set document. A document without a keys member
// yields an empty set. Entries without a kid, or that are not valid JWKs,
// are skipped. An error is returned only when the document itself cannot
// be decoded.
func ParseKeySet(r io.Reader) (map[string]validator.KeyDescriptor, error) {
	var doc keySetDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]validator.KeyDescriptor, len(doc.Keys))
	for _, raw := range doc.Keys {
		descriptor, ok := parseKeyDescriptor(raw)
		if !ok {
			continue
		}
		keys[descriptor.KeyID] = descriptor
	}

	return keys, nil
}

func parseKeyDescriptor(raw json.RawMessage) (validator.KeyDescriptor, bool) {
	var descriptor validator.KeyDescriptor
	if err := json.Unmarshal(raw, &descriptor); err != nil || descriptor.KeyID == "" {
		return validator.KeyDescriptor{}, false
	}

	if _, err := jwk.ParseKey(raw); err != nil {
		return validator.KeyDescriptor{}, false
	}

	descriptor.Raw = append(json.RawMessage(nil), raw...)
	return descriptor, true
}
