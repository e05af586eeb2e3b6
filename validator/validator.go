package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// Signature algorithms. Only RSA based algorithms are offered because the
// key descriptors published by the provider are RSA keys.
const (
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// AccessTokenUse is the token_use value carried by access tokens.
const AccessTokenUse = "access"

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var supportedSigningAlgorithms = map[SignatureAlgorithm]func() jwa.SignatureAlgorithm{
	RS256: jwa.RS256,
	RS384: jwa.RS384,
	RS512: jwa.RS512,
	PS256: jwa.PS256,
	PS384: jwa.PS384,
	PS512: jwa.PS512,
}

// Validator verifies access tokens against a resolved key descriptor.
type Validator struct {
	issuer            string                      // Required.
	clientID          string                      // Required.
	allowedAlgorithms map[SignatureAlgorithm]bool // Defaults to RS256 only.
	allowedClockSkew  time.Duration               // Optional.
	now               func() time.Time
}

// New sets up a new Validator.
//
// Required options:
//   - WithIssuer
//   - WithClientID
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithIssuer("https://cognito-idp.us-west-1.amazonaws.com/us-west-1_abc"),
//	    validator.WithClientID("4l1n3..."),
//	)
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		allowedAlgorithms: map[SignatureAlgorithm]bool{RS256: true},
		now:               time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := v.validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) validate() error {
	if v.issuer == "" {
		return errors.New("issuer is required (use WithIssuer)")
	}
	if v.clientID == "" {
		return errors.New("client id is required (use WithClientID)")
	}
	return nil
}

// ValidateToken checks the signature of tokenString with key and then the
// claim set. The returned error is always a *ValidationError.
func (v *Validator) ValidateToken(_ context.Context, tokenString string, key KeyDescriptor) (*Claims, error) {
	header, err := ParseHeader(tokenString)
	if err != nil {
		return nil, err
	}

	alg, err := v.signingAlgorithm(header.Algorithm)
	if err != nil {
		return nil, err
	}

	verificationKey, err := publicKeyFrom(key)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(tokenString), jws.WithKey(alg, verificationKey))
	if err != nil {
		return nil, NewValidationError(CodeBadSignature, "signature verification failed", err)
	}

	claims, present, err := decodeClaims(payload)
	if err != nil {
		return nil, err
	}

	if err := v.validateClaims(claims, present); err != nil {
		return nil, err
	}

	return claims, nil
}

// signingAlgorithm pins the header algorithm to the allow-list. The header
// value is attacker controlled, so it only selects among algorithms the
// operator already accepted.
func (v *Validator) signingAlgorithm(headerAlg string) (jwa.SignatureAlgorithm, error) {
	alg := SignatureAlgorithm(headerAlg)
	if !v.allowedAlgorithms[alg] {
		return jwa.SignatureAlgorithm{}, NewValidationError(
			CodeDisallowedAlgorithm,
			fmt.Sprintf("token algorithm %q is not allowed", headerAlg),
			nil,
		)
	}
	return supportedSigningAlgorithms[alg](), nil
}

func publicKeyFrom(descriptor KeyDescriptor) (jwk.Key, error) {
	if descriptor.KeyType != "RSA" {
		return nil, NewValidationError(
			CodeBadSignature,
			fmt.Sprintf("key %q has type %q, expected RSA", descriptor.KeyID, descriptor.KeyType),
			nil,
		)
	}

	raw, err := descriptor.JSON()
	if err != nil {
		return nil, NewValidationError(CodeUnclassified, "failed to encode key descriptor", err)
	}

	key, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, NewValidationError(CodeUnclassified, "failed to build public key from descriptor", err)
	}

	return key, nil
}

func (v *Validator) validateClaims(claims *Claims, present map[string]bool) error {
	for _, name := range []string{"exp", "iat", "token_use"} {
		if !present[name] {
			return NewValidationError(CodeMissingClaim, fmt.Sprintf("token is missing required %q claim", name), nil)
		}
	}

	now := v.now()
	if !now.Add(-v.allowedClockSkew).Before(claims.ExpiresAt) {
		return NewValidationError(CodeExpired, "token has expired", nil)
	}

	if claims.IssuedAt.After(now.Add(v.allowedClockSkew)) {
		return NewValidationError(CodeNotYetValid, "token was issued in the future", nil)
	}

	if !claims.NotBefore.IsZero() && claims.NotBefore.After(now.Add(v.allowedClockSkew)) {
		return NewValidationError(CodeNotYetValid, "token is not valid yet", nil)
	}

	if claims.Issuer != v.issuer {
		return NewValidationError(CodeIssuerMismatch, "token issuer does not match", nil)
	}

	if claims.TokenUse != AccessTokenUse {
		return NewValidationError(CodeWrongTokenUse, fmt.Sprintf("token_use must be %q", AccessTokenUse), nil)
	}

	if claims.ClientID != v.clientID {
		return NewValidationError(CodeClientMismatch, "client_id does not match expected app client id", nil)
	}

	return nil
}

// decodeClaims maps a verified payload onto Claims and reports which of
// the registered claims were present.
func decodeClaims(payload []byte) (*Claims, map[string]bool, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, nil, NewValidationError(CodeMalformedToken, "failed to unmarshal token claims", err)
	}

	claims := &Claims{Extra: make(map[string]any)}
	present := make(map[string]bool, len(registeredClaimNames))

	for name, value := range raw {
		if _, registered := registeredClaimNames[name]; !registered {
			claims.Extra[name] = value
			continue
		}
		present[name] = true

		var err error
		switch name {
		case "sub":
			claims.Subject, err = stringClaim(name, value)
		case "iss":
			claims.Issuer, err = stringClaim(name, value)
		case "token_use":
			claims.TokenUse, err = requiredClaim(stringClaim(name, value))
		case "client_id":
			claims.ClientID, err = stringClaim(name, value)
		case "scope":
			claims.Scope, err = stringClaim(name, value)
		case "username":
			claims.Username, err = stringClaim(name, value)
		case "exp":
			claims.ExpiresAt, err = requiredClaim(numericDateClaim(name, value))
		case "iat":
			claims.IssuedAt, err = requiredClaim(numericDateClaim(name, value))
		case "nbf":
			claims.NotBefore, err = numericDateClaim(name, value)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	return claims, present, nil
}

// requiredClaim reclassifies a malformed value of a required claim: such a
// claim counts as missing.
func requiredClaim[T any](value T, err error) (T, error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr.Code == CodeMalformedToken {
		return value, NewValidationError(CodeMissingClaim, validationErr.Message, validationErr.Details)
	}
	return value, err
}

func stringClaim(name string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", NewValidationError(CodeMalformedToken, fmt.Sprintf("claim %q must be a string", name), nil)
	}
	return s, nil
}

func numericDateClaim(name string, value any) (time.Time, error) {
	number, ok := value.(json.Number)
	if !ok {
		return time.Time{}, NewValidationError(CodeMalformedToken, fmt.Sprintf("claim %q must be a number", name), nil)
	}

	seconds, err := number.Float64()
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, NewValidationError(CodeMalformedToken, fmt.Sprintf("claim %q is not a valid date", name), err)
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}
