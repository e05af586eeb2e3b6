/*
Package validator verifies access tokens using the lestrrat-go/jwx v3 library.

A token is checked against one KeyDescriptor, the public key its header
points at. Finding that key is the caller's job (see package jwks); this
package only looks at the token, the key and the clock.

# Checks

ValidateToken runs, in order:

  - format: non-empty, at most 1MB, exactly three dot separated segments
  - algorithm: the header alg must be on the allow-list (RS256 by default)
  - signature: RSA verification with the descriptor's key
  - exp and iat must be present numbers, and token_use a present string
  - exp must lie in the future (minus the allowed clock skew)
  - iat, and nbf when present, must not lie in the future (plus the skew)
  - iss must equal the configured issuer exactly
  - token_use must be "access"
  - client_id must equal the configured app client id

The first failing check decides the error. Expiry is checked before the
issuer so that an expired token is reported as expired even when other
claims are also wrong.

# Errors

Every failure is a *ValidationError carrying an ErrorCode:

	claims, err := v.ValidateToken(ctx, token, key)
	if err != nil {
	    switch validator.CodeOf(err) {
	    case validator.CodeExpired:
	        // ask the client to refresh
	    default:
	        // reject
	    }
	}

Errors that describe the token itself match ErrTokenInvalid with
errors.Is. CodeKeySetUnavailable does not: it means the keys could not be
obtained, which says nothing about the token.

# Usage

	v, err := validator.New(
	    validator.WithIssuer("https://cognito-idp.us-west-1.amazonaws.com/us-west-1_abc"),
	    validator.WithClientID("4l1n3..."),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

ParseHeader is exported for key resolvers that need the kid before
anything has been verified. Its result must not be trusted.
*/
package validator
