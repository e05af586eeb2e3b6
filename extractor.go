package authorizer

import (
	"errors"
	"strings"
)

// DefaultTokenParameter is the query string parameter read by default.
// Browsers cannot set headers on a WebSocket handshake, so the token
// travels in the URL.
const DefaultTokenParameter = "token"

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
type TokenExtractor func(req *Request) (string, error)

// QueryParameterTokenExtractor returns a TokenExtractor that extracts
// the token from the specified query string parameter. Surrounding
// whitespace is removed.
func QueryParameterTokenExtractor(param string) TokenExtractor {
	return func(req *Request) (string, error) {
		return strings.TrimSpace(req.QueryParameter(param)), nil
	}
}

// AuthHeaderTokenExtractor is a TokenExtractor that takes a request
// and extracts the token from the Authorization header.
func AuthHeaderTokenExtractor(req *Request) (string, error) {
	authHeader := req.Header("Authorization")
	if authHeader == "" {
		return "", nil // No error, just no JWT.
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 || !strings.EqualFold(authHeaderParts[0], "bearer") {
		return "", errors.New("authorization header format must be Bearer {token}")
	}

	return authHeaderParts[1], nil
}

// HeaderTokenExtractor returns a TokenExtractor that reads the raw token
// from the named header, for gateways that strip the Bearer prefix.
func HeaderTokenExtractor(name string) TokenExtractor {
	return func(req *Request) (string, error) {
		return strings.TrimSpace(req.Header(name)), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(req *Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(req)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
