package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

const (
	wellKnownConfigurationPath = ".well-known/openid-configuration"
	wellKnownJWKSPath          = ".well-known/jwks.json"

	maxDocumentSize = 1024 * 1024
)

// WellKnownEndpoints holds the well known OIDC endpoints
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// JWKSURL returns the conventional key set location for issuerURL,
// <issuer>/.well-known/jwks.json, which is where Cognito user pools
// publish their signing keys.
func JWKSURL(issuerURL url.URL) *url.URL {
	issuerURL.Path = path.Join("/", issuerURL.Path, wellKnownJWKSPath)
	issuerURL.RawQuery = ""
	issuerURL.Fragment = ""
	return &issuerURL
}

// GetWellKnownEndpointsFromIssuerURL gets the well known endpoints for the
// passed in issuer url. The issuer advertised by the discovery document
// must equal expectedIssuer.
func GetWellKnownEndpointsFromIssuerURL(
	ctx context.Context,
	client *http.Client,
	issuerURL url.URL,
	expectedIssuer string,
) (*WellKnownEndpoints, error) {
	issuerURL.Path = path.Join("/", issuerURL.Path, wellKnownConfigurationPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuerURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}

	r, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", issuerURL.String(), err)
	}
	defer r.Body.Close()

	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("well known endpoints request returned status %d, expected 200", r.StatusCode)
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDocumentSize)).Decode(&wkEndpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}

	if wkEndpoints.Issuer != expectedIssuer {
		return nil, fmt.Errorf("discovery document issuer %q does not match expected issuer %q", wkEndpoints.Issuer, expectedIssuer)
	}

	if wkEndpoints.JWKSURI == "" {
		return nil, fmt.Errorf("discovery document does not advertise a jwks_uri")
	}

	return &wkEndpoints, nil
}
