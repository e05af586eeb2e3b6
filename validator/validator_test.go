package validator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/authorizer/internal/tokentest"
	"github.com/relaychat/authorizer/validator"
)

func newValidator(t *testing.T, opts ...validator.Option) *validator.Validator {
	t.Helper()

	opts = append([]validator.Option{
		validator.WithIssuer(tokentest.Issuer),
		validator.WithClientID(tokentest.ClientID),
	}, opts...)

	v, err := validator.New(opts...)
	require.NoError(t, err)
	return v
}

func codeOf(t *testing.T, err error) validator.ErrorCode {
	t.Helper()

	var validationErr *validator.ValidationError
	require.True(t, errors.As(err, &validationErr), "expected a *ValidationError, got %T: %v", err, err)
	return validationErr.Code
}

func TestValidator_ValidateToken(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	other := tokentest.NewSigner(t, "kid-2")

	with := func(mutate func(map[string]any)) map[string]any {
		claims := tokentest.AccessClaims("user-42")
		mutate(claims)
		return claims
	}

	testCases := []struct {
		name         string
		token        string
		key          validator.KeyDescriptor
		expectedCode validator.ErrorCode
	}{
		{
			name:         "it rejects a token signed by a different key",
			token:        other.Sign(t, tokentest.AccessClaims("user-42")),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeBadSignature,
		},
		{
			name: "it rejects a token whose algorithm is not allowed",
			token: tokentest.Unsigned(t,
				map[string]any{"alg": "HS256", "kid": "kid-1"},
				tokentest.AccessClaims("user-42"),
			),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeDisallowedAlgorithm,
		},
		{
			name: "it rejects alg none",
			token: tokentest.Unsigned(t,
				map[string]any{"alg": "none", "kid": "kid-1"},
				tokentest.AccessClaims("user-42"),
			),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeDisallowedAlgorithm,
		},
		{
			name:         "it rejects an RS384 token when only RS256 is allowed",
			token:        signer.SignWith(t, jwa.RS384(), "kid-1", tokentest.AccessClaims("user-42")),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeDisallowedAlgorithm,
		},
		{
			name:         "it requires exp",
			token:        signer.Sign(t, with(func(c map[string]any) { delete(c, "exp") })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeMissingClaim,
		},
		{
			name:         "it requires iat",
			token:        signer.Sign(t, with(func(c map[string]any) { delete(c, "iat") })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeMissingClaim,
		},
		{
			name:         "it requires token_use",
			token:        signer.Sign(t, with(func(c map[string]any) { delete(c, "token_use") })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeMissingClaim,
		},
		{
			name:         "it rejects an expired token",
			token:        signer.Sign(t, with(func(c map[string]any) { c["exp"] = time.Now().Add(-time.Minute).Unix() })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeExpired,
		},
		{
			name: "it reports expiry even when the issuer is also wrong",
			token: signer.Sign(t, with(func(c map[string]any) {
				c["exp"] = time.Now().Add(-time.Minute).Unix()
				c["iss"] = "https://evil.example.com"
			})),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeExpired,
		},
		{
			name:         "it rejects a foreign issuer",
			token:        signer.Sign(t, with(func(c map[string]any) { c["iss"] = tokentest.Issuer + "/" })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeIssuerMismatch,
		},
		{
			name:         "it rejects id tokens",
			token:        signer.Sign(t, with(func(c map[string]any) { c["token_use"] = "id" })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeWrongTokenUse,
		},
		{
			name:         "it rejects tokens for another app client",
			token:        signer.Sign(t, with(func(c map[string]any) { c["client_id"] = "someone-else" })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeClientMismatch,
		},
		{
			name:         "it rejects a missing client_id",
			token:        signer.Sign(t, with(func(c map[string]any) { delete(c, "client_id") })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeClientMismatch,
		},
		{
			name:         "it treats a non numeric exp as missing",
			token:        signer.Sign(t, with(func(c map[string]any) { c["exp"] = "9999999999" })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeMissingClaim,
		},
		{
			name: "it rejects a token issued in the future",
			token: signer.Sign(t, with(func(c map[string]any) {
				c["iat"] = time.Now().Add(24 * time.Hour).Unix()
				c["nbf"] = time.Now().Add(24 * time.Hour).Unix()
			})),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeNotYetValid,
		},
		{
			name:         "it rejects a token that is not valid yet",
			token:        signer.Sign(t, with(func(c map[string]any) { c["nbf"] = time.Now().Add(time.Hour).Unix() })),
			key:          signer.Descriptor(),
			expectedCode: validator.CodeNotYetValid,
		},
		{
			name:  "it refuses keys that are not RSA",
			token: signer.Sign(t, tokentest.AccessClaims("user-42")),
			key: validator.KeyDescriptor{
				KeyID:   "kid-1",
				KeyType: "EC",
			},
			expectedCode: validator.CodeBadSignature,
		},
		{
			name:         "it classifies garbage as malformed",
			token:        "not-a-token",
			key:          signer.Descriptor(),
			expectedCode: validator.CodeMalformedToken,
		},
	}

	v := newValidator(t)
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			claims, err := v.ValidateToken(context.Background(), testCase.token, testCase.key)
			assert.Nil(t, claims)
			assert.Equal(t, testCase.expectedCode, codeOf(t, err))
		})
	}

	t.Run("it returns the verified claim set", func(t *testing.T) {
		claims := tokentest.AccessClaims("user-42")
		claims["custom:tenant"] = "sjsu"

		verified, err := v.ValidateToken(context.Background(), signer.Sign(t, claims), signer.Descriptor())
		require.NoError(t, err)

		assert.Equal(t, "user-42", verified.Subject)
		assert.Equal(t, tokentest.Issuer, verified.Issuer)
		assert.Equal(t, "access", verified.TokenUse)
		assert.Equal(t, tokentest.ClientID, verified.ClientID)
		assert.Equal(t, "aws.cognito.signin.user.admin", verified.Scope)
		assert.Equal(t, "user-42-name", verified.Username)
		assert.Equal(t, claims["exp"], verified.ExpiresAt.Unix())
		assert.Equal(t, claims["iat"], verified.IssuedAt.Unix())
		assert.Equal(t, "sjsu", verified.Extra["custom:tenant"])
		assert.NotContains(t, verified.Extra, "sub")
	})

	t.Run("it accepts the descriptor's raw JSON", func(t *testing.T) {
		descriptor := signer.Descriptor()
		raw, err := descriptor.JSON()
		require.NoError(t, err)
		descriptor.Raw = raw

		_, err = v.ValidateToken(context.Background(), signer.Sign(t, tokentest.AccessClaims("user-42")), descriptor)
		assert.NoError(t, err)
	})
}

func TestValidator_AllowedClockSkew(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	claims := tokentest.AccessClaims("user-42")
	claims["exp"] = time.Now().Add(-10 * time.Second).Unix()
	token := signer.Sign(t, claims)

	strict := newValidator(t)
	_, err := strict.ValidateToken(context.Background(), token, signer.Descriptor())
	assert.Equal(t, validator.CodeExpired, codeOf(t, err))

	lenient := newValidator(t, validator.WithAllowedClockSkew(time.Minute))
	_, err = lenient.ValidateToken(context.Background(), token, signer.Descriptor())
	assert.NoError(t, err)
}

func TestValidator_WithAlgorithms(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	token := signer.SignWith(t, jwa.RS384(), "kid-1", tokentest.AccessClaims("user-42"))

	descriptor := signer.Descriptor()
	descriptor.Algorithm = ""

	v := newValidator(t, validator.WithAlgorithms(validator.RS256, validator.RS384))
	claims, err := v.ValidateToken(context.Background(), token, descriptor)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
}
