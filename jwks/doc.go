/*
Package jwks fetches and caches the identity provider's signing keys.

Three pieces cooperate:

  - HTTPFetcher downloads the key set document, by default from
    <issuer>/.well-known/jwks.json, and turns it into KeyDescriptors
    keyed by kid.
  - KeyCache keeps the last good key set for a TTL (one hour by default).
    When a refresh fails, keys fetched earlier keep being served so that a
    provider outage does not lock out every caller. Only when nothing was
    ever fetched does the cache report CodeKeySetUnavailable.
  - Resolver picks the key named by a token's kid. A kid the cache does
    not know triggers one forced refresh, which is how keys rotated in by
    the provider are picked up before the TTL runs out.

# Usage

	issuerURL, _ := url.Parse("https://cognito-idp.us-west-1.amazonaws.com/us-west-1_abc")

	fetcher, err := jwks.NewHTTPFetcher(jwks.WithIssuerURL(issuerURL))
	if err != nil {
	    log.Fatal(err)
	}

	cache, err := jwks.NewKeyCache(fetcher, jwks.WithTTL(time.Hour))
	if err != nil {
	    log.Fatal(err)
	}

	resolver, err := jwks.NewResolver(cache)
	if err != nil {
	    log.Fatal(err)
	}

	key, err := resolver.ResolveKey(ctx, token)

# Concurrency

KeyCache is safe for concurrent use. Readers share an immutable snapshot of
the key set behind a sync.RWMutex, and callers that find the set expired
at the same time wait on a single download instead of each starting one.

# Observability

WithLogger reports stale fallbacks at warn level and failures with an
empty cache at error level. WithObserver receives a FetchEvent for every
attempt, which the authorizer package turns into metrics.
*/
package jwks
