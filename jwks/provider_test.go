package jwks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/authorizer/internal/tokentest"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewHTTPFetcher(t *testing.T) {
	t.Run("it requires an issuer URL", func(t *testing.T) {
		_, err := NewHTTPFetcher()
		assert.EqualError(t, err, "issuer URL is required (use WithIssuerURL)")
	})

	t.Run("it defaults to the well-known key set location", func(t *testing.T) {
		f, err := NewHTTPFetcher(WithIssuerURL(mustParseURL(t, tokentest.Issuer)))
		require.NoError(t, err)
		assert.Equal(t, tokentest.Issuer+"/.well-known/jwks.json", f.jwksURI)
		assert.Equal(t, DefaultFetchTimeout, f.timeout)
	})

	t.Run("it prefers a custom JWKS URI", func(t *testing.T) {
		f, err := NewHTTPFetcher(
			WithIssuerURL(mustParseURL(t, tokentest.Issuer)),
			WithCustomJWKSURI(mustParseURL(t, "https://keys.example.com/jwks")),
			WithDiscovery(),
		)
		require.NoError(t, err)
		assert.Equal(t, "https://keys.example.com/jwks", f.jwksURI)
	})

	t.Run("it surfaces option errors", func(t *testing.T) {
		_, err := NewHTTPFetcher(WithFetchTimeout(0))
		assert.ErrorContains(t, err, "invalid option: fetch timeout must be positive")

		_, err = NewHTTPFetcher(WithCustomClient(nil))
		assert.ErrorContains(t, err, "HTTP client cannot be nil")
	})
}

func TestHTTPFetcher_FetchKeySet(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")

	t.Run("it downloads and indexes the key set", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "/pool/.well-known/jwks.json", r.URL.Path)
			_, _ = w.Write(tokentest.KeySet(t, signer))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithIssuerURL(mustParseURL(t, server.URL+"/pool")))
		require.NoError(t, err)

		keys, err := f.FetchKeySet(context.Background())
		require.NoError(t, err)
		require.Contains(t, keys, "kid-1")
		assert.Equal(t, "RSA", keys["kid-1"].KeyType)
		assert.NotEmpty(t, keys["kid-1"].Raw)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("it resolves the location through discovery", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/pool/.well-known/openid-configuration":
				_, _ = w.Write([]byte(`{"issuer":"` + server.URL + `/pool","jwks_uri":"` + server.URL + `/keys"}`))
			case "/keys":
				_, _ = w.Write(tokentest.KeySet(t, signer))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithIssuerURL(mustParseURL(t, server.URL+"/pool")), WithDiscovery())
		require.NoError(t, err)

		keys, err := f.FetchKeySet(context.Background())
		require.NoError(t, err)
		assert.Contains(t, keys, "kid-1")
		assert.Equal(t, server.URL+"/keys", f.jwksURI)
	})

	testCases := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr string
	}{
		{
			name: "it fails on a non 200 response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			expectedErr: "request returned status 503, expected 200",
		},
		{
			name: "it fails on an unparsable body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			expectedErr: "failed to parse JWKS",
		},
		{
			name: "it fails on a body larger than 1MB",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"keys":[],"padding":"` + strings.Repeat("a", maxKeySetSize) + `"}`))
			},
			expectedErr: "failed to parse JWKS",
		},
		{
			name: "it gives up after the fetch timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			expectedErr: "request failed",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(testCase.handler)
			defer server.Close()

			f, err := NewHTTPFetcher(
				WithIssuerURL(mustParseURL(t, server.URL)),
				WithFetchTimeout(100*time.Millisecond),
			)
			require.NoError(t, err)

			keys, err := f.FetchKeySet(context.Background())
			assert.Nil(t, keys)
			assert.ErrorContains(t, err, testCase.expectedErr)
		})
	}
}

func TestParseKeySet(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	valid := string(tokentest.KeySet(t, signer))
	validEntry := strings.TrimSuffix(strings.TrimPrefix(valid, `{"keys":[`), `]}`)

	testCases := []struct {
		name         string
		document     string
		expectedKids []string
		expectErr    bool
	}{
		{
			name:         "a well formed document",
			document:     valid,
			expectedKids: []string{"kid-1"},
		},
		{
			name:         "a document without keys is empty",
			document:     `{"other":true}`,
			expectedKids: []string{},
		},
		{
			name:         "entries without kid are skipped",
			document:     `{"keys":[{"kty":"RSA","n":"AQAB","e":"AQAB"},` + validEntry + `]}`,
			expectedKids: []string{"kid-1"},
		},
		{
			name:         "entries that are not keys are skipped",
			document:     `{"keys":[{"kid":"junk","kty":"nope"},42,` + validEntry + `]}`,
			expectedKids: []string{"kid-1"},
		},
		{
			name:      "a document that is not an object",
			document:  `["keys"]`,
			expectErr: true,
		},
		{
			name:      "invalid JSON",
			document:  `{"keys":`,
			expectErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			keys, err := ParseKeySet(strings.NewReader(testCase.document))
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			kids := make([]string, 0, len(keys))
			for kid := range keys {
				kids = append(kids, kid)
			}
			assert.ElementsMatch(t, testCase.expectedKids, kids)
		})
	}
}
