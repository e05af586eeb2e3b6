package validator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	// maxTokenSize rejects inputs no provider would ever issue before any
	// decoding happens.
	maxTokenSize = 1024 * 1024

	// compactSegments is the number of dot separated parts of a compact JWS.
	compactSegments = 3
)

var (
	errTokenEmpty    = errors.New("token is empty")
	errTokenTooLarge = errors.New("token exceeds maximum size (1MB)")
	errTokenSegments = errors.New("token must have exactly three segments")
)

// Header is the subset of the JOSE header the authorizer looks at before
// anything has been verified.
type Header struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid"`
	Type      string `json:"typ,omitempty"`
}

// ParseHeader decodes the protected header of a compact JWS without
// touching the payload or the signature. The result is untrusted.
func ParseHeader(token string) (*Header, error) {
	if err := validateTokenFormat(token); err != nil {
		return nil, NewValidationError(CodeMalformedToken, "token format is invalid", err)
	}

	encoded, _, _ := strings.Cut(token, ".")
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, NewValidationError(CodeMalformedToken, "failed to decode token header", err)
	}

	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, NewValidationError(CodeMalformedToken, "failed to unmarshal token header", err)
	}

	return &header, nil
}

func validateTokenFormat(token string) error {
	if token == "" {
		return errTokenEmpty
	}
	if len(token) > maxTokenSize {
		return errTokenTooLarge
	}
	if strings.Count(token, ".") != compactSegments-1 {
		return errTokenSegments
	}
	return nil
}
