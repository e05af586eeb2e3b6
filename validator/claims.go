package validator

import (
	"encoding/json"
	"time"
)

// Claims is the verified claim set of an access token. It is only ever
// produced by Validator.ValidateToken after the signature checked out.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
	NotBefore time.Time // zero when the token carries no nbf
	TokenUse  string
	ClientID  string
	Scope     string
	Username  string

	// Extra holds every claim not mapped to a field above.
	Extra map[string]any
}

// KeyDescriptor is a public key as published in the provider's key set.
// N and E are the base64url encoded RSA modulus and exponent.
type KeyDescriptor struct {
	KeyID     string `json:"kid"`
	KeyType   string `json:"kty"`
	Algorithm string `json:"alg,omitempty"`
	Use       string `json:"use,omitempty"`
	N         string `json:"n,omitempty"`
	E         string `json:"e,omitempty"`

	// Raw is the key exactly as it appeared in the key set document.
	Raw json.RawMessage `json:"-"`
}

// JSON returns the JWK representation of the descriptor.
func (d KeyDescriptor) JSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(d)
}

var registeredClaimNames = map[string]struct{}{
	"sub":       {},
	"iss":       {},
	"exp":       {},
	"iat":       {},
	"nbf":       {},
	"token_use": {},
	"client_id": {},
	"scope":     {},
	"username":  {},
}
