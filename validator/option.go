package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithIssuer sets the expected issuer claim (iss) for token validation.
// This is a required option.
//
// The comparison is exact, so the value must match the provider's iss
// claim byte for byte (no trailing slash normalisation).
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuerURL); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithClientID sets the app client id the token's client_id claim must
// carry. This is a required option. Access tokens have no aud claim, so
// this is what scopes a token to the application.
func WithClientID(clientID string) Option {
	return func(v *Validator) error {
		if clientID == "" {
			return errors.New("client id cannot be empty")
		}
		v.clientID = clientID
		return nil
	}
}

// WithAlgorithms replaces the set of accepted signature algorithms.
// The default accepts RS256 only.
func WithAlgorithms(algorithms ...SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algorithms) == 0 {
			return errors.New("at least one algorithm is required")
		}
		allowed := make(map[SignatureAlgorithm]bool, len(algorithms))
		for _, alg := range algorithms {
			if _, ok := supportedSigningAlgorithms[alg]; !ok {
				return fmt.Errorf("unsupported signature algorithm: %s", alg)
			}
			allowed[alg] = true
		}
		v.allowedAlgorithms = allowed
		return nil
	}
}

// WithAllowedClockSkew sets the tolerance applied to the exp claim.
// If not set, the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}
