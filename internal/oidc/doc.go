/*
Package oidc locates an identity provider's signing key set.

Cognito user pools publish their keys at a fixed location below the issuer:

	https://cognito-idp.<region>.amazonaws.com/<pool-id>/.well-known/jwks.json

JWKSURL builds that location. Providers that only advertise their keys
through OpenID Connect discovery are supported by
GetWellKnownEndpointsFromIssuerURL, which reads
<issuer>/.well-known/openid-configuration and returns its jwks_uri after
checking that the document was issued for the expected issuer.
*/
package oidc
