/*
Package core is the transport independent token evaluation pipeline.

Core.Evaluate takes the raw token and runs it through a KeyResolver and a
TokenVerifier. It never returns an error. Instead every call ends in a
Result tagged with one Outcome:

  - Valid: Claims holds the verified claim set.
  - Missing: no token was presented.
  - Rejected: the token is bad; Code is one of the validator error codes.
  - Failed: the token could not be judged, for example because the key
    set was unavailable; Code is key_set_unavailable or unclassified.

The authorizer package turns a Result into an Allow or Deny decision.
Adapters that only need the claims use SetClaims and GetClaims to pass
them to downstream handlers through the request context.
*/
package core
