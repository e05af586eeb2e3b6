// Package tokentest mints RS256 access tokens and key set documents for tests.
package tokentest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/authorizer/validator"
)

const (
	Issuer   = "https://cognito-idp.us-west-1.amazonaws.com/us-west-1_TestPool"
	ClientID = "test-app-client"
)

// Signer holds an RSA key pair published under KeyID.
type Signer struct {
	KeyID   string
	Private *rsa.PrivateKey
}

// NewSigner generates a fresh 2048 bit key pair.
func NewSigner(t testing.TB, keyID string) *Signer {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &Signer{KeyID: keyID, Private: privateKey}
}

// Descriptor returns the public half as the provider would publish it.
func (s *Signer) Descriptor() validator.KeyDescriptor {
	pub := s.Private.PublicKey
	return validator.KeyDescriptor{
		KeyID:     s.KeyID,
		KeyType:   "RSA",
		Algorithm: "RS256",
		Use:       "sig",
		N:         base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:         base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// KeySet renders a key set document containing the given signers.
func KeySet(t testing.TB, signers ...*Signer) []byte {
	t.Helper()

	keys := make([]validator.KeyDescriptor, 0, len(signers))
	for _, s := range signers {
		keys = append(keys, s.Descriptor())
	}

	body, err := json.Marshal(map[string]any{"keys": keys})
	require.NoError(t, err)
	return body
}

// AccessClaims returns a claim set that passes every check for subject.
func AccessClaims(subject string) map[string]any {
	now := time.Now()
	return map[string]any{
		"sub":       subject,
		"iss":       Issuer,
		"exp":       now.Add(time.Hour).Unix(),
		"iat":       now.Unix(),
		"token_use": "access",
		"client_id": ClientID,
		"scope":     "aws.cognito.signin.user.admin",
		"username":  subject + "-name",
	}
}

// Sign produces an RS256 token with the signer's kid in the header.
func (s *Signer) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	return s.SignWith(t, jwa.RS256(), s.KeyID, claims)
}

// SignWith produces a token using alg, placing kid in the header when it
// is not empty.
func (s *Signer) SignWith(t testing.TB, alg jwa.SignatureAlgorithm, kid string, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	headers := jws.NewHeaders()
	require.NoError(t, headers.Set(jws.TypeKey, "JWT"))
	if kid != "" {
		require.NoError(t, headers.Set(jws.KeyIDKey, kid))
	}

	signed, err := jws.Sign(payload, jws.WithKey(alg, s.Private, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)

	return string(signed)
}

// Unsigned builds a token with an arbitrary header and a junk signature.
func Unsigned(t testing.TB, header map[string]any, claims map[string]any) string {
	t.Helper()

	h, err := json.Marshal(header)
	require.NoError(t, err)
	c, err := json.Marshal(claims)
	require.NoError(t, err)

	return strings.Join([]string{
		base64.RawURLEncoding.EncodeToString(h),
		base64.RawURLEncoding.EncodeToString(c),
		base64.RawURLEncoding.EncodeToString([]byte("signature")),
	}, ".")
}
